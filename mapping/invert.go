// Package mapping baut Nachschlagetabellen aus zweispaltigen Mapping-Dateien.
package mapping

import (
	"strings"

	"drug-repo/tabular"
)

// IdentifierMap bildet einen Identifier des Ziel-Vokabulars (Spalte 2)
// auf den Identifier des Quell-Vokabulars (Spalte 1) ab.
type IdentifierMap map[string]string

// InvertStats zählt, was beim Invertieren passiert ist.
type InvertStats struct {
	Rows       int
	Skipped    int // Zeilen mit weniger als zwei Spalten
	Overwrites int // doppelte Schlüssel, der letzte Eintrag gewinnt
}

// InvertLines invertiert eine Mapping-Datei, deren erste Zeile die Kopfzeile ist.
// Doppelte Schlüssel in Spalte 2 überschreiben frühere Einträge.
func InvertLines(lines []string) (IdentifierMap, InvertStats) {
	m := make(IdentifierMap)
	var stats InvertStats
	if len(lines) < 2 {
		return m, stats
	}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Rows++
		fields := tabular.SplitLine(line)
		if len(fields) < 2 {
			stats.Skipped++
			continue
		}
		key := strings.TrimRight(fields[1], "\r\n")
		if _, exists := m[key]; exists {
			stats.Overwrites++
		}
		m[key] = fields[0]
	}
	return m, stats
}

// InvertFile liest und invertiert eine Mapping-Datei.
func InvertFile(path string) (IdentifierMap, InvertStats, error) {
	lines, err := tabular.ReadLines(path)
	if err != nil {
		return nil, InvertStats{}, err
	}
	m, stats := InvertLines(lines)
	return m, stats, nil
}
