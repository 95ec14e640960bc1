// Package budget is a small client for the Actual Budget HTTP API.
package budget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when the client lacks the URL, budget or account.
var ErrNotConfigured = errors.New("budget api is not configured")

// Config holds the connection settings. Zero values disable the client.
type Config struct {
	BaseURL   string
	BudgetID  string
	AccountID string
	APIKey    string
	Timeout   time.Duration
}

// Enabled reports whether enough settings are present to talk to the API.
func (c Config) Enabled() bool {
	return c.BaseURL != "" && c.BudgetID != "" && c.AccountID != ""
}

// Client posts transaction imports through a circuit breaker.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// New builds a client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	logger = logger.With(zap.String("component", "budget"))

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "actual-budget",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A 4xx means the request was bad, not that the API is down.
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &Client{cfg: cfg, http: httpClient, breaker: breaker, logger: logger}
}

// AccountID is the account every imported transaction is booked on.
func (c *Client) AccountID() string {
	return c.cfg.AccountID
}

// ImportTransactions sends the batch to the import endpoint, which
// deduplicates on importedId.
func (c *Client) ImportTransactions(ctx context.Context, txs []Transaction) (*ImportResult, error) {
	if !c.cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doImport(ctx, txs)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("budget api unavailable: %w", err)
		}
		return nil, err
	}

	return result.(*ImportResult), nil
}

func (c *Client) doImport(ctx context.Context, txs []Transaction) (*ImportResult, error) {
	// 1. Build the request.
	body, err := json.Marshal(ImportRequest{Transactions: txs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/budgets/%s/accounts/%s/transactions/import",
		c.cfg.BaseURL, url.PathEscape(c.cfg.BudgetID), url.PathEscape(c.cfg.AccountID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build import request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-api-key", c.cfg.APIKey)
	}

	// 2. Send it.
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call budget api: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read budget api response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	// 3. Decode the result. An empty body is accepted as success.
	var out importResponse
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, fmt.Errorf("failed to decode budget api response: %w", err)
		}
	}

	c.logger.Debug("imported transactions",
		zap.Int("sent", len(txs)), zap.Int("added", len(out.Data.Added)), zap.Int("updated", len(out.Data.Updated)))

	return &out.Data, nil
}
