package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/telegram/mocks"
)

func TestGetUpdates(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		api := mocks.NewBotAPI(t)
		client := NewWithAPI(api, zap.NewNop())

		api.On("GetUpdates", mock.MatchedBy(func(cfg tgbotapi.UpdateConfig) bool {
			return cfg.Offset == 11 && cfg.Timeout == 5
		})).Return([]tgbotapi.Update{
			{
				UpdateID: 11,
				Message: &tgbotapi.Message{
					MessageID: 3,
					Date:      1700000000,
					Text:      "2500",
					Chat:      &tgbotapi.Chat{ID: 99, Type: "private"},
					From:      &tgbotapi.User{ID: 7, UserName: "ana", FirstName: "Ana"},
				},
			},
			{UpdateID: 12},
		}, nil)

		updates, err := client.GetUpdates(context.Background(), 11, 5*time.Second)

		require.NoError(t, err)
		require.Len(t, updates, 2)
		assert.Equal(t, models.Update{
			ID: 11,
			Message: &models.Message{
				ID:   3,
				Chat: models.Chat{ID: 99, Type: "private"},
				From: models.User{ID: 7, Username: "ana", FirstName: "Ana"},
				Text: "2500",
				Date: 1700000000,
			},
		}, updates[0])
		assert.Equal(t, int64(12), updates[1].ID)
		assert.Nil(t, updates[1].Message)
	})

	t.Run("Transport Error", func(t *testing.T) {
		api := mocks.NewBotAPI(t)
		client := NewWithAPI(api, zap.NewNop())

		api.On("GetUpdates", mock.Anything).Return(nil, errors.New("connection reset"))

		_, err := client.GetUpdates(context.Background(), 1, time.Second)

		assert.ErrorContains(t, err, "failed to get updates")
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		api := mocks.NewBotAPI(t)
		client := NewWithAPI(api, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.GetUpdates(ctx, 1, time.Second)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSendMessage(t *testing.T) {
	t.Run("With Keyboard", func(t *testing.T) {
		api := mocks.NewBotAPI(t)
		client := NewWithAPI(api, zap.NewNop())

		kb := models.ButtonGrid([]string{"ARS", "USD", "EUR"}, 3)
		api.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			if !ok || msg.ChatID != 99 || msg.Text != "hola" {
				return false
			}
			markup, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
			return ok && markup.ResizeKeyboard && markup.OneTimeKeyboard &&
				len(markup.Keyboard) == 1 && markup.Keyboard[0][1].Text == "USD"
		})).Return(tgbotapi.Message{}, nil)

		assert.NoError(t, client.SendMessage(context.Background(), 99, "hola", kb))
	})

	t.Run("Persistent Keyboard Is Not One Time", func(t *testing.T) {
		markup := replyKeyboard(&models.Keyboard{Rows: [][]string{{"a"}}, Resize: true, OneTime: true, Persistent: true})

		assert.False(t, markup.OneTimeKeyboard)
		assert.True(t, markup.ResizeKeyboard)
	})

	t.Run("Send Fails", func(t *testing.T) {
		api := mocks.NewBotAPI(t)
		client := NewWithAPI(api, zap.NewNop())

		api.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("forbidden"))

		err := client.SendMessage(context.Background(), 99, "hola", nil)

		assert.ErrorContains(t, err, "failed to send message to chat 99")
	})
}
