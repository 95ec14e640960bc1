// Package export writes the ledger as a CSV file Actual Budget can import.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/David-Schmidt02/gastos-bot/pkg/mapping"
	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

// DefaultPath is where exports land unless configured otherwise.
const DefaultPath = "data/import_actual.csv"

// WriteCSV writes the header followed by one row per entry.
func WriteCSV(w io.Writer, entries []models.LedgerEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(mapping.CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(mapping.ToCSVRow(e)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// ToFile replaces the file at path with a fresh export and returns the
// number of entries written.
func ToFile(path string, entries []models.LedgerEntry) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}

	if err := WriteCSV(f, entries); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close export file: %w", err)
	}

	return len(entries), nil
}
