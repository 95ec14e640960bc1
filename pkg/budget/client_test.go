package budget

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testTransaction() Transaction {
	return Transaction{
		ID:           TransactionID("telegram:1:2"),
		AccountID:    "acc",
		Amount:       -250000,
		Date:         openapi_types.Date{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		ImportedID:   "telegram:1:2",
		CategoryName: "Comida",
		Cleared:      true,
	}
}

func TestImportTransactions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var got map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/budgets/bud/accounts/acc/transactions/import", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("x-api-key"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"data":{"added":["x"],"updated":[]}}`))
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL + "/", BudgetID: "bud", AccountID: "acc", APIKey: "secret"}, server.Client(), zap.NewNop())

		result, err := client.ImportTransactions(context.Background(), []Transaction{testTransaction()})

		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, result.Added)

		txs := got["transactions"].([]any)
		require.Len(t, txs, 1)
		tx := txs[0].(map[string]any)
		assert.Equal(t, "2024-03-01", tx["date"])
		assert.Equal(t, "telegram:1:2", tx["importedId"])
		assert.Equal(t, float64(-250000), tx["amount"])
		assert.NotContains(t, tx, "notes")
	})

	t.Run("Non 2xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad account", http.StatusBadRequest)
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, BudgetID: "bud", AccountID: "acc"}, server.Client(), zap.NewNop())

		_, err := client.ImportTransactions(context.Background(), []Transaction{testTransaction()})

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "bad account", apiErr.Body)
	})

	t.Run("Breaker Opens On Server Errors", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, BudgetID: "bud", AccountID: "acc"}, server.Client(), zap.NewNop())

		for i := 0; i < 5; i++ {
			_, err := client.ImportTransactions(context.Background(), []Transaction{testTransaction()})
			require.Error(t, err)
		}
		_, err := client.ImportTransactions(context.Background(), []Transaction{testTransaction()})

		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, 5, calls)
	})

	t.Run("Not Configured", func(t *testing.T) {
		client := New(Config{}, nil, zap.NewNop())

		_, err := client.ImportTransactions(context.Background(), nil)

		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestTransactionID(t *testing.T) {
	assert.Equal(t, TransactionID("telegram:1:2"), TransactionID("telegram:1:2"))
	assert.NotEqual(t, TransactionID("telegram:1:2"), TransactionID("telegram:1:3"))
}

func TestToMinorUnits(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		cents, err := ToMinorUnits(decimal.NewFromInt(-2500))
		require.NoError(t, err)
		assert.Equal(t, int64(-250000), cents)

		cents, err = ToMinorUnits(decimal.RequireFromString("12.34"))
		require.NoError(t, err)
		assert.Equal(t, int64(1234), cents)
	})

	t.Run("Out Of Range", func(t *testing.T) {
		_, err := ToMinorUnits(decimal.NewFromInt(-100000000000000000))
		assert.ErrorIs(t, err, ErrAmountOutOfRange)

		_, err = ToMinorUnits(decimal.NewFromInt(math.MaxInt64))
		assert.ErrorIs(t, err, ErrAmountOutOfRange)
	})
}
