// Package telegram adapts the Bot API client to the bot's transport-neutral models.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

// httpSlack is added to the long-poll timeout so the HTTP client never
// gives up before Telegram answers.
const httpSlack = 10 * time.Second

//go:generate mockery --name BotAPI --output ./mocks --outpkg mocks

// BotAPI is the subset of *tgbotapi.BotAPI the client uses.
type BotAPI interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client implements long polling and message delivery.
type Client struct {
	api    BotAPI
	logger *zap.Logger
}

// New connects to the Bot API with the given token. The token is verified
// with a getMe call before returning.
func New(token string, pollTimeout time.Duration, logger *zap.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: pollTimeout + httpSlack})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot api: %w", err)
	}

	logger.Info("authorized on telegram", zap.String("bot", api.Self.UserName))
	return NewWithAPI(api, logger), nil
}

// NewWithAPI wraps an existing API implementation.
func NewWithAPI(api BotAPI, logger *zap.Logger) *Client {
	return &Client{api: api, logger: logger.With(zap.String("component", "telegram"))}
}

// GetUpdates long-polls for updates with an identifier of at least offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]models.Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := tgbotapi.NewUpdate(int(offset))
	cfg.Timeout = int(timeout / time.Second)
	cfg.AllowedUpdates = []string{"message"}

	raw, err := c.api.GetUpdates(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get updates: %w", err)
	}

	updates := make([]models.Update, 0, len(raw))
	for _, u := range raw {
		updates = append(updates, convertUpdate(u))
	}
	return updates, nil
}

// SendMessage delivers a plain-text message with an optional reply keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, kb *models.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = replyKeyboard(kb)
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

func convertUpdate(u tgbotapi.Update) models.Update {
	out := models.Update{ID: int64(u.UpdateID)}
	if u.Message == nil {
		return out
	}

	m := u.Message
	msg := &models.Message{
		ID:   int64(m.MessageID),
		Text: m.Text,
		Date: int64(m.Date),
	}
	if m.Chat != nil {
		msg.Chat = models.Chat{ID: m.Chat.ID, Type: m.Chat.Type}
	}
	if m.From != nil {
		msg.From = models.User{
			ID:        m.From.ID,
			Username:  m.From.UserName,
			FirstName: m.From.FirstName,
			LastName:  m.From.LastName,
		}
	}
	out.Message = msg
	return out
}

// replyKeyboard maps a keyboard to Telegram markup. Persistent keyboards are
// sent without one_time_keyboard so they stay visible.
func replyKeyboard(kb *models.Keyboard) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, buttons)
	}

	return tgbotapi.ReplyKeyboardMarkup{
		Keyboard:        rows,
		ResizeKeyboard:  kb.Resize,
		OneTimeKeyboard: kb.OneTime && !kb.Persistent,
	}
}
