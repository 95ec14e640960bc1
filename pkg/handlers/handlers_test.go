package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/David-Schmidt02/gastos-bot/pkg/metrics"
	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage/mocks"
)

func TestHealth(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetOffset", mock.Anything).Return(int64(42), nil)

		h := NewApiHandler(mockStorage, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()

		// Act
		h.Health(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp HealthResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)
		assert.Equal(t, HealthResponse{Status: "ok", Offset: 42}, resp)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		// Arrange
		mockStorage := new(mocks.Storage)
		mockStorage.On("GetOffset", mock.Anything).Return(int64(0), errors.New("open /srv/gastos/state.json: permission denied"))
		core, logs := observer.New(zap.WarnLevel)

		h := NewApiHandler(mockStorage, zap.New(core))

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()

		// Act
		h.Health(rr, req)

		// Assert
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"unavailable"`)
		assert.NotContains(t, rr.Body.String(), "state.json")
		assert.Equal(t, 1, logs.FilterMessage("health check failed").Len())
	})
}

func TestExportCSV(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockStorage := new(mocks.Storage)
		mockStorage.On("LoadAll", mock.Anything).Return([]models.LedgerEntry{
			{ChatID: 1, MessageID: 1, Timestamp: 100, LocalDateTime: "2024-03-01 12:30", Amount: -2500, Currency: "ARS", Category: "Comida"},
		}, nil)

		h := NewApiHandler(mockStorage, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/export.csv", nil)
		rr := httptest.NewRecorder()

		// Act
		h.ExportCSV(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
		lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
		assert.Len(t, lines, 2)
		assert.Equal(t, "Date,Payee,Category,Notes,Amount", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "2024-03-01,"))
	})

	t.Run("Storage Error", func(t *testing.T) {
		// Arrange
		mockStorage := new(mocks.Storage)
		mockStorage.On("LoadAll", mock.Anything).Return(nil, assert.AnError)

		h := NewApiHandler(mockStorage, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/export.csv", nil)
		rr := httptest.NewRecorder()

		// Act
		h.ExportCSV(rr, req)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), assert.AnError.Error())
	})
}

func TestNewRouter(t *testing.T) {
	mockStorage := new(mocks.Storage)
	mockStorage.On("GetOffset", mock.Anything).Return(int64(3), nil)
	mockStorage.On("LoadAll", mock.Anything).Return([]models.LedgerEntry{}, nil)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	m.PollErrors.Inc()

	server := httptest.NewServer(NewRouter(mockStorage, registry, zap.NewNop()))
	defer server.Close()

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/healthz", http.StatusOK, `"offset":3`},
		{"/entries", http.StatusOK, "[]"},
		{"/export.csv", http.StatusOK, "Date,Payee,Category,Notes,Amount"},
		{"/metrics", http.StatusOK, "gastos_poll_errors_total 1"},
		{"/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			assert.NoError(t, err)
			defer resp.Body.Close()

			body := new(strings.Builder)
			_, _ = io.Copy(body, resp.Body)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, body.String(), tt.contains)
		})
	}
}
