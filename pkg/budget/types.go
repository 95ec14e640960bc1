package budget

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// Transaction is one row of an import request.
type Transaction struct {
	ID           string             `json:"id"`
	AccountID    string             `json:"accountId"`
	Amount       int64              `json:"amount"`
	Date         openapi_types.Date `json:"date"`
	Notes        string             `json:"notes,omitempty"`
	ImportedID   string             `json:"importedId"`
	PayeeName    string             `json:"payeeName,omitempty"`
	CategoryName string             `json:"categoryName,omitempty"`
	Cleared      bool               `json:"cleared"`
}

// ImportRequest is the body of the transactions import endpoint.
type ImportRequest struct {
	Transactions []Transaction `json:"transactions"`
}

// ImportResult lists the server-side ids touched by an import. Transactions
// whose importedId already existed show up in Updated, not Added.
type ImportResult struct {
	Added   []string `json:"added"`
	Updated []string `json:"updated"`
}

type importResponse struct {
	Data ImportResult `json:"data"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("budget api returned status %d: %s", e.StatusCode, e.Body)
}

// TransactionID derives a stable UUID from the imported id, so re-sending
// the same entry always carries the same id.
func TransactionID(importedID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(importedID)).String()
}

// ErrAmountOutOfRange is returned when an amount in cents does not fit in int64.
var ErrAmountOutOfRange = errors.New("amount out of range")

var (
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
)

// ToMinorUnits converts a whole-unit amount into cents.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	cents := amount.Shift(2).Round(0)
	if cents.LessThan(minMinorUnits) || cents.GreaterThan(maxMinorUnits) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount.String())
	}
	return cents.IntPart(), nil
}
