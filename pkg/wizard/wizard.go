// Package wizard holds the per-user entry state machine. It is pure: every
// call maps a session and an input to the next session and the reply to send.
package wizard

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

const (
	// DefaultSkipToken lets the user leave the description empty.
	DefaultSkipToken = "/omitir"

	gridColumns = 3

	// MaxAmount is the largest amount whose value in cents still fits in int64.
	MaxAmount = math.MaxInt64 / 100
)

var amountPattern = regexp.MustCompile(`^[+-]?\d+$`)

// Config is immutable once the Machine is built.
type Config struct {
	Categories      []string
	DefaultCurrency string
	SkipToken       string
}

// Reply is the message the caller should send back to the user.
type Reply struct {
	Text     string
	Keyboard *models.Keyboard
}

// Completed carries the captured values once the description step finishes.
// Amount is the absolute value; use SignedAmount to apply the entry type.
type Completed struct {
	Type        models.EntryType
	Amount      int64
	Currency    string
	Category    string
	Description string
}

// Result is the outcome of a single step. Next is nil when the wizard ended.
type Result struct {
	Next      models.Session
	Reply     Reply
	Completed *Completed
}

// Machine drives the four-step flow: amount, currency, category, description.
type Machine struct {
	cfg Config
}

// New copies the configuration so later changes by the caller have no effect.
func New(cfg Config) *Machine {
	cfg.Categories = slices.Clone(cfg.Categories)
	if cfg.SkipToken == "" {
		cfg.SkipToken = DefaultSkipToken
	}
	return &Machine{cfg: cfg}
}

// Begin starts a new draft of the given type, discarding any previous one.
func (m *Machine) Begin(t models.EntryType) Result {
	text := "💸 Nuevo Gasto\n\n¿Cuál es el monto?\n\nEjemplo: 2500"
	if t == models.INCOME {
		text = "💰 Nuevo Ingreso\n\n¿Cuál es el monto?\n\nEjemplo: 50000"
	}

	return Result{
		Next:  models.AmountStep{Type: t},
		Reply: Reply{Text: text},
	}
}

// Step feeds one user input into the current session. Invalid input keeps
// the session unchanged and re-prompts.
func (m *Machine) Step(session models.Session, input string) Result {
	switch s := session.(type) {
	case models.AmountStep:
		return m.stepAmount(s, input)
	case models.CurrencyStep:
		return m.stepCurrency(s, input)
	case models.CategoryStep:
		return m.stepCategory(s, input)
	case models.DescriptionStep:
		return m.stepDescription(s, input)
	default:
		return Result{}
	}
}

func (m *Machine) stepAmount(s models.AmountStep, input string) Result {
	amount, err := NormalizeAmount(input)
	if err != nil {
		return Result{
			Next:  s,
			Reply: Reply{Text: "❌ Monto inválido. Solo números, por favor.\n\nEjemplo: 2500"},
		}
	}

	return Result{
		Next: s.WithAmount(amount),
		Reply: Reply{
			Text:     fmt.Sprintf("💵 ¿En qué moneda?\n\n(Por defecto: %s)", m.cfg.DefaultCurrency),
			Keyboard: models.ButtonGrid([]string{m.cfg.DefaultCurrency, "USD", "EUR"}, gridColumns),
		},
	}
}

func (m *Machine) stepCurrency(s models.CurrencyStep, input string) Result {
	return Result{
		Next: s.WithCurrency(m.NormalizeCurrency(input)),
		Reply: Reply{
			Text:     "📂 Elegí la categoría:",
			Keyboard: models.ButtonGrid(m.cfg.Categories, gridColumns),
		},
	}
}

func (m *Machine) stepCategory(s models.CategoryStep, input string) Result {
	category := strings.TrimSpace(input)
	if !slices.Contains(m.cfg.Categories, category) {
		return Result{
			Next: s,
			Reply: Reply{
				Text:     "❌ Categoría inválida. Elegí una del teclado:",
				Keyboard: models.ButtonGrid(m.cfg.Categories, gridColumns),
			},
		}
	}

	noun := "gasto"
	if s.Type == models.INCOME {
		noun = "ingreso"
	}

	return Result{
		Next: s.WithCategory(category),
		Reply: Reply{
			Text: fmt.Sprintf("📝 Descripción del %s (opcional)\n\nEscribí el texto o enviá %s", noun, m.cfg.SkipToken),
		},
	}
}

func (m *Machine) stepDescription(s models.DescriptionStep, input string) Result {
	description := strings.TrimSpace(input)
	if strings.EqualFold(description, m.cfg.SkipToken) {
		description = ""
	}

	done := &Completed{
		Type:        s.Type,
		Amount:      s.Amount,
		Currency:    s.Currency,
		Category:    s.Category,
		Description: description,
	}

	return Result{
		Reply:     Reply{Text: Confirmation(done)},
		Completed: done,
	}
}

// NormalizeAmount strips thousands separators and returns the absolute value.
// Both "." and "," are removed, so decimals are not supported.
func NormalizeAmount(input string) (int64, error) {
	s := strings.TrimSpace(input)
	s = strings.NewReplacer(".", "", ",", "").Replace(s)
	if !amountPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid amount %q", input)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if n > MaxAmount || n < -MaxAmount {
		return 0, fmt.Errorf("invalid amount %q: out of range", input)
	}
	if n < 0 {
		n = -n
	}
	return n, nil
}

// NormalizeCurrency uppercases the input and falls back to the default
// currency unless the result is exactly three characters.
func (m *Machine) NormalizeCurrency(input string) string {
	currency := strings.ToUpper(strings.TrimSpace(input))
	if utf8.RuneCountInString(currency) != 3 {
		return m.cfg.DefaultCurrency
	}
	return currency
}

// SignedAmount applies the ledger sign convention: expenses are negative.
func SignedAmount(t models.EntryType, amount int64) int64 {
	if amount < 0 {
		amount = -amount
	}
	if t == models.EXPENSE {
		return -amount
	}
	return amount
}

// Confirmation renders the message sent once an entry is recorded.
func Confirmation(c *Completed) string {
	kind := "Gasto"
	if c.Type == models.INCOME {
		kind = "Ingreso"
	}
	description := c.Description
	if description == "" {
		description = "Sin descripción"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s registrado!\n\n", kind)
	fmt.Fprintf(&b, "💰 %s %s\n", strconv.FormatInt(c.Amount, 10), c.Currency)
	fmt.Fprintf(&b, "📂 %s\n", c.Category)
	fmt.Fprintf(&b, "📝 %s\n\n", description)
	b.WriteString("Podés seguir registrando desde el menú.")
	return b.String()
}
