// Package config loads the bot settings. Precedence, highest first:
// environment variables, the YAML file at CONFIG_PATH, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/David-Schmidt02/gastos-bot/pkg/budget"
)

const (
	BackendFile     = "file"
	BackendSQL      = "sql"
	BackendDynamoDB = "dynamodb"

	QueueMemory = "memory"
	QueueSQS    = "sqs"

	placeholderToken = "TU_TOKEN_DE_BOTFATHER"
)

var (
	ErrMissingToken    = errors.New("TELEGRAM_BOT_TOKEN is not configured")
	ErrInvalidTimezone = errors.New("invalid TIMEZONE")
	ErrNoCategories    = errors.New("at least one category is required")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// DefaultCategories is used when neither the file nor the environment set any.
var DefaultCategories = []string{
	"Comida", "Supermercado", "Transporte", "Servicios",
	"Alquiler", "Salud", "Educación", "Ocio", "Ropa", "Varios",
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Backend        string `yaml:"backend"`
	LedgerPath     string `yaml:"ledger_path"`
	StatePath      string `yaml:"state_path"`
	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`
	EntriesTable   string `yaml:"dynamodb_entries_table"`
	StateTable     string `yaml:"dynamodb_state_table"`
	LockRedisURL   string `yaml:"lock_redis_url"`
}

// Forward configures the queue feeding the budget forwarder.
type Forward struct {
	Queue       string `yaml:"queue"`
	SQSQueueURL string `yaml:"sqs_queue_url"`
	Workers     int    `yaml:"workers"`
	Buffer      int    `yaml:"buffer"`
}

// Budget holds the Actual Budget HTTP API settings. Forwarding is disabled
// unless URL, budget and account are all set.
type Budget struct {
	URL       string `yaml:"api_url"`
	BudgetID  string `yaml:"budget_id"`
	AccountID string `yaml:"account_id"`
	APIKey    string `yaml:"api_key"`
}

func (b Budget) Enabled() bool {
	return b.ClientConfig().Enabled()
}

// ClientConfig maps the settings onto the budget client configuration.
func (b Budget) ClientConfig() budget.Config {
	return budget.Config{
		BaseURL:   b.URL,
		BudgetID:  b.BudgetID,
		AccountID: b.AccountID,
		APIKey:    b.APIKey,
	}
}

// Config is built once at startup and passed by value afterwards.
type Config struct {
	TelegramToken   string   `yaml:"bot_token"`
	DefaultCurrency string   `yaml:"default_currency"`
	Timezone        string   `yaml:"timezone"`
	Categories      []string `yaml:"categories"`
	PayeeDefault    string   `yaml:"payee_default"`
	LogLevel        string   `yaml:"log_level"`
	PollingInterval int      `yaml:"polling_interval"`
	SkipToken       string   `yaml:"skip_token"`
	HTTPAddr        string   `yaml:"http_addr"`
	ExportPath      string   `yaml:"export_path"`

	Storage Storage `yaml:"storage"`
	Forward Forward `yaml:"forward"`
	Budget  Budget  `yaml:"actual_budget"`

	location *time.Location
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		DefaultCurrency: "ARS",
		Timezone:        "America/Argentina/Buenos_Aires",
		Categories:      append([]string(nil), DefaultCategories...),
		LogLevel:        "info",
		PollingInterval: 5,
		SkipToken:       "/omitir",
		HTTPAddr:        "127.0.0.1:8080",
		ExportPath:      "data/import_actual.csv",
		Storage: Storage{
			Backend:        BackendFile,
			LedgerPath:     "data/ledger.json",
			StatePath:      "state.json",
			DatabaseDriver: "pgx",
		},
		Forward: Forward{
			Queue:   QueueMemory,
			Workers: 2,
			Buffer:  100,
		},
	}
}

// Load reads .env into the process environment when present, then builds
// and validates the configuration.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return Build(path, os.LookupEnv)
}

// Build applies the YAML file at path (if it exists) and then the variables
// returned by lookup on top of the defaults.
func Build(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()

	if err := cfg.applyFile(path); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, v)
		}
		*dst = n
		return nil
	}

	str("TELEGRAM_BOT_TOKEN", &c.TelegramToken)
	str("DEFAULT_CURRENCY", &c.DefaultCurrency)
	str("TIMEZONE", &c.Timezone)
	str("PAYEE_DEFAULT", &c.PayeeDefault)
	str("LOG_LEVEL", &c.LogLevel)
	str("SKIP_TOKEN", &c.SkipToken)
	str("EXPORT_PATH", &c.ExportPath)
	if v, ok := lookup("HTTP_ADDR"); ok {
		// An explicit empty value disables the ops server.
		c.HTTPAddr = v
	}
	if v, ok := lookup("CATEGORIES"); ok && v != "" {
		c.Categories = splitList(v)
	}

	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("LEDGER_PATH", &c.Storage.LedgerPath)
	str("STATE_PATH", &c.Storage.StatePath)
	str("DATABASE_DRIVER", &c.Storage.DatabaseDriver)
	str("DATABASE_URL", &c.Storage.DatabaseURL)
	str("DYNAMODB_ENTRIES_TABLE", &c.Storage.EntriesTable)
	str("DYNAMODB_STATE_TABLE", &c.Storage.StateTable)
	str("LOCK_REDIS_URL", &c.Storage.LockRedisURL)

	str("FORWARD_QUEUE", &c.Forward.Queue)
	str("SQS_QUEUE_URL", &c.Forward.SQSQueueURL)

	str("ACTUAL_API_URL", &c.Budget.URL)
	str("ACTUAL_BUDGET_ID", &c.Budget.BudgetID)
	str("ACTUAL_ACCOUNT_ID", &c.Budget.AccountID)
	str("ACTUAL_API_KEY", &c.Budget.APIKey)

	for key, dst := range map[string]*int{
		"POLLING_INTERVAL": &c.PollingInterval,
		"FORWARD_WORKERS":  &c.Forward.Workers,
		"FORWARD_BUFFER":   &c.Forward.Buffer,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the settings and resolves the time zone.
func (c *Config) Validate() error {
	if c.TelegramToken == "" || c.TelegramToken == placeholderToken {
		return ErrMissingToken
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidTimezone, c.Timezone, err)
	}
	c.location = loc

	c.Categories = trimList(c.Categories)
	if len(c.Categories) == 0 {
		return ErrNoCategories
	}
	c.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.DefaultCurrency))
	if len([]rune(c.DefaultCurrency)) != 3 {
		return fmt.Errorf("%w: DEFAULT_CURRENCY must have three letters, got %q", ErrInvalidConfig, c.DefaultCurrency)
	}
	if c.PollingInterval < 1 {
		return fmt.Errorf("%w: POLLING_INTERVAL must be positive", ErrInvalidConfig)
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.LedgerPath == "" || c.Storage.StatePath == "" {
			return fmt.Errorf("%w: LEDGER_PATH and STATE_PATH are required for the file backend", ErrInvalidConfig)
		}
	case BackendSQL:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the sql backend", ErrInvalidConfig)
		}
		if c.Storage.DatabaseDriver != "pgx" && c.Storage.DatabaseDriver != "sqlite3" {
			return fmt.Errorf("%w: unknown DATABASE_DRIVER %q", ErrInvalidConfig, c.Storage.DatabaseDriver)
		}
	case BackendDynamoDB:
		if c.Storage.EntriesTable == "" || c.Storage.StateTable == "" {
			return fmt.Errorf("%w: DYNAMODB_ENTRIES_TABLE and DYNAMODB_STATE_TABLE are required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_BACKEND %q", ErrInvalidConfig, c.Storage.Backend)
	}

	switch c.Forward.Queue {
	case QueueMemory:
	case QueueSQS:
		if c.Forward.SQSQueueURL == "" {
			return fmt.Errorf("%w: SQS_QUEUE_URL is required when FORWARD_QUEUE=sqs", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown FORWARD_QUEUE %q", ErrInvalidConfig, c.Forward.Queue)
	}

	return nil
}

// Location is the resolved time zone. It is only valid after Validate.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// PollTimeout is the long-poll wait passed to getUpdates.
func (c Config) PollTimeout() time.Duration {
	return time.Duration(c.PollingInterval) * time.Second
}

// CategoryList returns a copy of the categories.
func (c Config) CategoryList() []string {
	return append([]string(nil), c.Categories...)
}

func splitList(v string) []string {
	return trimList(strings.Split(v, ","))
}

// trimList trims each element and drops the empty ones.
func trimList(list []string) []string {
	var out []string
	for _, item := range list {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
