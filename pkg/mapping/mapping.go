package mapping

import (
	"fmt"
	"strconv"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"github.com/David-Schmidt02/gastos-bot/pkg/budget"
	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

// CSVHeader is the column order Actual Budget's CSV importer expects.
var CSVHeader = []string{"Date", "Payee", "Category", "Notes", "Amount"}

// ToBudgetTransaction converts a ledger entry into an import row for the budget API.
func ToBudgetTransaction(entry models.LedgerEntry, accountID, importedID string) (budget.Transaction, error) {
	amount, err := budget.ToMinorUnits(decimal.NewFromInt(entry.Amount))
	if err != nil {
		return budget.Transaction{}, fmt.Errorf("failed to map %s: %w", importedID, err)
	}

	return budget.Transaction{
		ID:           budget.TransactionID(importedID),
		AccountID:    accountID,
		Amount:       amount,
		Date:         openapi_types.Date{Time: EntryDate(entry)},
		Notes:        entry.Description,
		ImportedID:   importedID,
		PayeeName:    entry.Payee,
		CategoryName: entry.Category,
		Cleared:      true,
	}, nil
}

// EntryDate returns the calendar date the entry was recorded on in the bot's
// time zone. Entries with an unreadable local date fall back to the UTC date
// of their timestamp.
func EntryDate(entry models.LedgerEntry) time.Time {
	if d, err := time.Parse(time.DateOnly, entry.LocalDate()); err == nil {
		return d
	}
	ts := time.Unix(entry.Timestamp, 0).UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// ToCSVRow converts a ledger entry into a row matching CSVHeader.
func ToCSVRow(entry models.LedgerEntry) []string {
	return []string{
		entry.LocalDate(),
		entry.Payee,
		entry.Category,
		entry.Description,
		strconv.FormatInt(entry.Amount, 10),
	}
}
