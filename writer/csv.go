// Package writer serializes assembled ledgers to their output files and
// optionally archives run artifacts to S3.
package writer

import (
	"fmt"
	"os"

	"cryptoexport/internal/ledger"
	"cryptoexport/logger"
)

// WriteTransactions writes the assembled rows to path in the fixed
// 10-column CSV schema.
func WriteTransactions(path string, rows []ledger.Row, log *logger.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := ledger.WriteCSV(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	log.WithFields(logger.Fields{
		"path": path,
		"rows": len(rows),
	}).Info("wrote transactions file")
	return nil
}
