package services

import (
	"regexp"
	"strings"

	"drug-repo/models"
	"drug-repo/tabular"
)

// cathPattern: vierstufiger CATH-Code, z.B. "2.40.50.140".
var cathPattern = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// ExtractRecords sucht alle Marker-Zeilen in der Tool-Ausgabe und gibt die
// jeweils folgende Zeile tab-getrennt zurück. Ohne Marker ist das Ergebnis leer.
func ExtractRecords(output []byte, marker string) [][]string {
	var records [][]string
	afterMarker := false
	for _, line := range strings.Split(strings.TrimRight(string(output), "\r\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		if afterMarker {
			afterMarker = false
			records = append(records, tabular.SplitLine(line))
			// Die Datenzeile kann selbst kein Marker sein.
			continue
		}
		if strings.Contains(line, marker) {
			afterMarker = true
		}
	}
	return records
}

// ParseCATHField zerlegt ein CATH-Feld. Der Annotationsbuchstabe "p" wird entfernt,
// Listen sind mit "_" getrennt, nur vierstufige Codes werden übernommen.
func ParseCATHField(field string) []string {
	field = strings.ReplaceAll(strings.TrimSpace(field), "p", "")
	var codes []string
	if strings.Contains(field, "_") {
		for _, tok := range strings.Split(field, "_") {
			if cathPattern.MatchString(tok) {
				codes = append(codes, tok)
			}
		}
		return codes
	}
	if cathPattern.MatchString(field) {
		codes = append(codes, field)
	}
	return codes
}

// ParsePfamField zerlegt ein Pfam-Feld. Listen sind mit "." getrennt, es wird nicht validiert.
func ParsePfamField(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	if !strings.Contains(field, ".") {
		return []string{field}
	}
	var codes []string
	for _, tok := range strings.Split(field, ".") {
		if tok != "" {
			codes = append(codes, tok)
		}
	}
	return codes
}

// CodeParser wählt die Grammatik einer Klassifikation.
func CodeParser(v models.Vocabulary) func(string) []string {
	if v == models.VocabularyCATH {
		return ParseCATHField
	}
	return ParsePfamField
}

// ParseCodes liest alle Architektur-Codes aus einer Vorwärts-Ausgabe.
func ParseCodes(output []byte, marker string, v models.Vocabulary, field int) []string {
	parse := CodeParser(v)
	var codes []string
	for _, rec := range ExtractRecords(output, marker) {
		if field >= len(rec) {
			continue
		}
		codes = append(codes, parse(rec[field])...)
	}
	return models.Dedup(codes)
}

// ParseAccessions liest die Protein-Accessions (erste Spalte) aus einer Rückwärts-Ausgabe.
func ParseAccessions(output []byte, marker string) []string {
	var ids []string
	for _, rec := range ExtractRecords(output, marker) {
		if len(rec) > 0 && strings.TrimSpace(rec[0]) != "" {
			ids = append(ids, strings.TrimSpace(rec[0]))
		}
	}
	return models.Dedup(ids)
}
