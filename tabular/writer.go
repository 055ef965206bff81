package tabular

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteTable schreibt Kopfzeile und Zeilen im Format der Eingabedatei.
// Fehlende Verzeichnisse werden angelegt.
func WriteTable(path string, header []string, rows []Row) error {
	return writeLines(path, func(w *bufio.Writer) error {
		if _, err := w.WriteString(strings.Join(header, Delimiter) + "\n"); err != nil {
			return err
		}
		for _, row := range rows {
			if _, err := w.WriteString(row.Line + "\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteRecords schreibt eine Kopfzeile und beliebige Datensätze als TSV.
func WriteRecords(path string, header []string, records [][]string) error {
	return writeLines(path, func(w *bufio.Writer) error {
		if _, err := w.WriteString(strings.Join(header, Delimiter) + "\n"); err != nil {
			return err
		}
		for _, rec := range records {
			if _, err := w.WriteString(strings.Join(rec, Delimiter) + "\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeLines(path string, fill func(*bufio.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
