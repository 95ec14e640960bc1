// Package conversation routes inbound messages: global commands first, then
// the sender's wizard session, and finally the ledger commit.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/export"
	"github.com/David-Schmidt02/gastos-bot/pkg/forwarder"
	"github.com/David-Schmidt02/gastos-bot/pkg/metrics"
	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
	"github.com/David-Schmidt02/gastos-bot/pkg/wizard"
)

// LocalDateTimeLayout is the format of LedgerEntry.LocalDateTime.
const LocalDateTimeLayout = "2006-01-02 15:04"

//go:generate mockery --name Sender --output ./mocks --outpkg mocks

// Sender delivers a reply to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb *models.Keyboard) error
}

// Config holds the settings the router needs.
type Config struct {
	Categories   []string
	Location     *time.Location
	PayeeDefault string
	ExportPath   string
}

// Router handles one message at a time. It is called from the single
// ingestion goroutine, so it keeps no locks of its own.
type Router struct {
	store   storage.ConversationStore
	wizard  *wizard.Machine
	sender  Sender
	queue   forwarder.Queue
	metrics *metrics.Metrics
	logger  *zap.Logger
	cfg     Config
}

// New builds a router. A nil queue disables forwarding.
func New(store storage.ConversationStore, machine *wizard.Machine, sender Sender, queue forwarder.Queue, m *metrics.Metrics, cfg Config, logger *zap.Logger) *Router {
	if queue == nil {
		queue = forwarder.NopQueue{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = export.DefaultPath
	}
	cfg.Categories = slices.Clone(cfg.Categories)

	return &Router{
		store:   store,
		wizard:  machine,
		sender:  sender,
		queue:   queue,
		metrics: m,
		logger:  logger.With(zap.String("component", "router")),
		cfg:     cfg,
	}
}

// Route handles a single message. Errors are returned to the caller, which
// owns user notification and offset bookkeeping.
func (r *Router) Route(ctx context.Context, msg models.Message) error {
	text := strings.TrimSpace(msg.Text)
	logger := r.logger.With(
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int64("user_id", msg.From.ID),
		zap.Int64("message_id", msg.ID),
	)

	// 1. Global commands win over any active session
	if handled, err := r.handleGlobal(ctx, msg, text); handled {
		return err
	}

	// 2. Continue the sender's wizard, if any
	rec, err := r.store.GetSession(ctx, msg.From.ID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if rec == nil {
		// 3. Nothing to do with free text outside the wizard
		logger.Debug("ignoring message without active session", zap.String("text", text))
		return nil
	}

	session, err := models.DecodeSession(*rec)
	if err != nil {
		if clearErr := r.store.ClearSession(ctx, msg.From.ID); clearErr != nil {
			logger.Error("failed to clear undecodable session", zap.Error(clearErr))
		}
		return fmt.Errorf("%w: %v", storage.ErrCorruptState, err)
	}
	if session == nil {
		return nil
	}

	result := r.wizard.Step(session, text)
	if result.Completed != nil {
		return r.commit(ctx, msg, result, logger)
	}

	if err := r.store.SaveSession(ctx, msg.From.ID, models.EncodeSession(result.Next)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return r.reply(ctx, msg.Chat.ID, result.Reply)
}

func (r *Router) handleGlobal(ctx context.Context, msg models.Message, text string) (bool, error) {
	command := commandName(text)

	switch {
	case command == CommandStart:
		r.count("start")
		if err := r.store.ClearSession(ctx, msg.From.ID); err != nil {
			return true, fmt.Errorf("failed to clear session: %w", err)
		}
		return true, r.send(ctx, msg.Chat.ID, startText, MainMenu())

	case text == ButtonNewExpense:
		r.count("new_expense")
		return true, r.begin(ctx, msg, models.EXPENSE)

	case text == ButtonNewIncome:
		r.count("new_income")
		return true, r.begin(ctx, msg, models.INCOME)

	case text == ButtonCategories:
		r.count("categories")
		return true, r.send(ctx, msg.Chat.ID, categoriesText(r.cfg.Categories), nil)

	case text == ButtonExport || command == CommandExport:
		r.count("export")
		return true, r.export(ctx, msg.Chat.ID)

	case text == ButtonHelp || command == CommandHelp:
		r.count("help")
		return true, r.send(ctx, msg.Chat.ID, helpText, nil)

	case command == CommandCancel:
		r.count("cancel")
		if err := r.store.ClearSession(ctx, msg.From.ID); err != nil {
			return true, fmt.Errorf("failed to clear session: %w", err)
		}
		return true, r.send(ctx, msg.Chat.ID, cancelText, MainMenu())
	}

	return false, nil
}

func (r *Router) begin(ctx context.Context, msg models.Message, t models.EntryType) error {
	result := r.wizard.Begin(t)
	if err := r.store.SaveSession(ctx, msg.From.ID, models.EncodeSession(result.Next)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return r.reply(ctx, msg.Chat.ID, result.Reply)
}

func (r *Router) export(ctx context.Context, chatID int64) error {
	entries, err := r.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	n, err := export.ToFile(r.cfg.ExportPath, entries)
	if err != nil {
		return err
	}

	r.logger.Info("ledger exported", zap.Int("entries", n), zap.String("path", r.cfg.ExportPath))
	return r.send(ctx, chatID, exportText(n, r.cfg.ExportPath), nil)
}

// commit stores the completed draft. On append failure the session stays at
// the description step so the user can send the description again.
func (r *Router) commit(ctx context.Context, msg models.Message, result wizard.Result, logger *zap.Logger) error {
	done := result.Completed
	entry := models.LedgerEntry{
		ChatID:        msg.Chat.ID,
		MessageID:     msg.ID,
		UserID:        msg.From.ID,
		Timestamp:     msg.Date,
		LocalDateTime: time.Unix(msg.Date, 0).In(r.cfg.Location).Format(LocalDateTimeLayout),
		Amount:        wizard.SignedAmount(done.Type, done.Amount),
		Currency:      done.Currency,
		Category:      done.Category,
		Description:   done.Description,
		Payee:         r.cfg.PayeeDefault,
	}

	res, err := r.store.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	r.metrics.EntriesAppended.WithLabelValues(res.String(), string(done.Type)).Inc()

	switch res {
	case storage.Created:
		logger.Info("ledger entry created",
			zap.String("key", entry.Key().String()),
			zap.Int64("amount", entry.Amount),
			zap.String("currency", entry.Currency),
			zap.String("category", entry.Category),
		)
		if err := r.queue.Enqueue(ctx, entry); err != nil {
			// The entry is committed; forwarding is best-effort.
			level := zap.ErrorLevel
			if errors.Is(err, forwarder.ErrQueueFull) {
				level = zap.WarnLevel
			}
			logger.Log(level, "failed to enqueue forward", zap.String("key", entry.Key().String()), zap.Error(err))
		}
	case storage.Duplicate:
		logger.Info("duplicate ledger entry ignored", zap.String("key", entry.Key().String()))
	}

	if err := r.store.ClearSession(ctx, msg.From.ID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return r.send(ctx, msg.Chat.ID, result.Reply.Text, MainMenu())
}

func (r *Router) reply(ctx context.Context, chatID int64, reply wizard.Reply) error {
	return r.send(ctx, chatID, reply.Text, reply.Keyboard)
}

func (r *Router) send(ctx context.Context, chatID int64, text string, kb *models.Keyboard) error {
	if err := r.sender.SendMessage(ctx, chatID, text, kb); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

func (r *Router) count(command string) {
	r.metrics.CommandsHandled.WithLabelValues(command).Inc()
}

// commandName returns the slash command in text without arguments or the
// @botname suffix, or "" when text is not a command.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}
