package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	sessions := []Session{
		AmountStep{Type: INCOME},
		CurrencyStep{Type: EXPENSE, Amount: 2500},
		CategoryStep{Type: EXPENSE, Amount: 2500, Currency: "ARS"},
		DescriptionStep{Type: INCOME, Amount: 10, Currency: "USD", Category: "Varios"},
	}

	for _, s := range sessions {
		t.Run(string(s.Stage()), func(t *testing.T) {
			rec := EncodeSession(s)
			assert.Equal(t, s.Stage(), rec.Stage)

			decoded, err := DecodeSession(rec)
			require.NoError(t, err)
			assert.Equal(t, s, decoded)
		})
	}
}

func TestDecodeSession(t *testing.T) {
	t.Run("None", func(t *testing.T) {
		s, err := DecodeSession(SessionRecord{})
		assert.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("Missing Type Defaults To Expense", func(t *testing.T) {
		s, err := DecodeSession(SessionRecord{Stage: StageAmount})
		require.NoError(t, err)
		assert.Equal(t, EXPENSE, s.EntryType())
	})

	t.Run("Incomplete Draft", func(t *testing.T) {
		_, err := DecodeSession(SessionRecord{Stage: StageCategory, Draft: Draft{Type: EXPENSE}})
		assert.ErrorIs(t, err, ErrIncompleteDraft)
	})

	t.Run("Unknown Stage", func(t *testing.T) {
		_, err := DecodeSession(SessionRecord{Stage: "confirm"})
		assert.Error(t, err)
	})
}

func TestEncodeNilSession(t *testing.T) {
	assert.Equal(t, StageNone, EncodeSession(nil).Stage)
}

func TestButtonGrid(t *testing.T) {
	kb := ButtonGrid([]string{"a", "b", "c", "d"}, 3)

	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d"}}, kb.Rows)
	assert.True(t, kb.Resize)
	assert.True(t, kb.OneTime)
	assert.False(t, kb.Persistent)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@ana", User{Username: "ana", FirstName: "Ana"}.DisplayName())
	assert.Equal(t, "Ana Gomez", User{FirstName: "Ana", LastName: "Gomez"}.DisplayName())
	assert.Equal(t, "Ana", User{FirstName: "Ana"}.DisplayName())
}

func TestLedgerEntryLocalDate(t *testing.T) {
	e := LedgerEntry{LocalDateTime: "2025-03-01 18:45"}
	assert.Equal(t, "2025-03-01", e.LocalDate())
	assert.Equal(t, "1:2", LedgerEntry{ChatID: 1, MessageID: 2}.Key().String())
}
