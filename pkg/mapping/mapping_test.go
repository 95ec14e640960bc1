package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Schmidt02/gastos-bot/pkg/budget"
	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

func TestToBudgetTransaction(t *testing.T) {
	entry := models.LedgerEntry{
		ChatID: 1, MessageID: 2, Timestamp: 1709251200, LocalDateTime: "2024-02-29 21:00",
		Amount: -2500, Currency: "ARS", Category: "Comida", Description: "almuerzo", Payee: "Kiosco",
	}

	tx, err := ToBudgetTransaction(entry, "acc", "telegram:1:2")
	require.NoError(t, err)

	assert.Equal(t, budget.TransactionID("telegram:1:2"), tx.ID)
	assert.Equal(t, "acc", tx.AccountID)
	assert.Equal(t, int64(-250000), tx.Amount)
	assert.Equal(t, "2024-02-29", tx.Date.String())
	assert.Equal(t, "almuerzo", tx.Notes)
	assert.Equal(t, "Kiosco", tx.PayeeName)
	assert.Equal(t, "Comida", tx.CategoryName)
	assert.True(t, tx.Cleared)

	t.Run("Amount Out Of Range", func(t *testing.T) {
		huge := entry
		huge.Amount = -100000000000000000

		_, err := ToBudgetTransaction(huge, "acc", "telegram:1:2")

		assert.ErrorIs(t, err, budget.ErrAmountOutOfRange)
	})
}

func TestEntryDateFallsBackToTimestamp(t *testing.T) {
	entry := models.LedgerEntry{Timestamp: 1709251200, LocalDateTime: "garbage"}

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), EntryDate(entry))
}

func TestToCSVRow(t *testing.T) {
	entry := models.LedgerEntry{LocalDateTime: "2024-02-29 21:00", Payee: "", Category: "Ocio", Description: "cine", Amount: -1200}

	assert.Equal(t, []string{"2024-02-29", "", "Ocio", "cine", "-1200"}, ToCSVRow(entry))
	assert.Len(t, CSVHeader, len(ToCSVRow(entry)))
}
