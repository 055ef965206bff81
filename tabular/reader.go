// Package tabular liest und schreibt tab-separierte Dateien mit Kopfzeile.
// Spalten werden über den Namen in der Kopfzeile aufgelöst, nicht über feste Positionen.
package tabular

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Delimiter trennt die Spalten aller Eingabedateien.
const Delimiter = "\t"

// maxLineSize begrenzt die Länge einer einzelnen Zeile (ChEMBL-Exporte haben lange Synonym-Spalten).
const maxLineSize = 16 * 1024 * 1024

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrHeaderNotFound = errors.New("header not found")
	ErrEmptyFile      = errors.New("file has no header row")
)

// HeaderNotFoundError nennt Datei und Spaltenname einer fehlenden Kopfzeilen-Spalte.
type HeaderNotFoundError struct {
	Path   string
	Header string
}

func (e *HeaderNotFoundError) Error() string {
	return fmt.Sprintf("header %q not found in %s", e.Header, e.Path)
}

func (e *HeaderNotFoundError) Is(target error) bool {
	return target == ErrHeaderNotFound
}

// Row ist eine Datenzeile samt Originaltext.
type Row struct {
	Line   string
	Fields []string
}

// Field gibt die Spalte i zurück oder "" wenn die Zeile zu kurz ist.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Table ist eine geladene Datei: Kopfzeile, Datenzeilen und Spaltenindex.
type Table struct {
	Path   string
	Header []string
	Rows   []Row

	index map[string]int
}

// ReadLines liest eine Datei vollständig und entfernt Zeilenende-Zeichen.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// SplitLine zerlegt eine Zeile an Tabs.
func SplitLine(line string) []string {
	return strings.Split(strings.TrimRight(line, "\r\n"), Delimiter)
}

// HeaderColumn liest nur die erste Zeile und gibt die nullbasierte Position von header zurück.
func HeaderColumn(path, header string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
		return 0, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	for i, name := range SplitLine(scanner.Text()) {
		if name == header {
			return i, nil
		}
	}
	return 0, &HeaderNotFoundError{Path: path, Header: header}
}

// Load lädt eine Datei mit Kopfzeile. Leerzeilen werden übersprungen.
func Load(path string) (*Table, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, lines)
}

// Parse baut eine Table aus bereits gelesenen Zeilen; lines[0] ist die Kopfzeile.
func Parse(path string, lines []string) (*Table, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	t := &Table{
		Path:   path,
		Header: SplitLine(lines[0]),
		Rows:   make([]Row, 0, len(lines)-1),
	}
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		// Bei doppelten Namen zählt das erste Vorkommen, wie beim Scan der Kopfzeile.
		if _, ok := t.index[name]; !ok {
			t.index[name] = i
		}
	}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		t.Rows = append(t.Rows, Row{Line: line, Fields: SplitLine(line)})
	}
	return t, nil
}

// Column gibt die Position der Spalte name zurück.
func (t *Table) Column(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, &HeaderNotFoundError{Path: t.Path, Header: name}
	}
	return i, nil
}

// Columns löst mehrere Spaltennamen auf einmal auf.
func (t *Table) Columns(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}
