package models

import "sort"

// IdentifierSet ist eine de-duplizierte Menge von Identifiern ohne Ordnung.
type IdentifierSet map[string]struct{}

// NewIdentifierSet erstellt eine Menge aus den gegebenen Identifiern.
func NewIdentifierSet(ids ...string) IdentifierSet {
	s := make(IdentifierSet, len(ids))
	s.Add(ids...)
	return s
}

// Add fügt Identifier hinzu. Leere Strings werden ignoriert.
func (s IdentifierSet) Add(ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		s[id] = struct{}{}
	}
}

func (s IdentifierSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IdentifierSet) Len() int {
	return len(s)
}

// Merge übernimmt alle Elemente aus other in s.
func (s IdentifierSet) Merge(other IdentifierSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Union gibt eine neue Menge mit den Elementen beider Mengen zurück.
func (s IdentifierSet) Union(other IdentifierSet) IdentifierSet {
	out := make(IdentifierSet, len(s)+len(other))
	out.Merge(s)
	out.Merge(other)
	return out
}

// Sorted gibt die Elemente sortiert zurück, z.B. für Dateien und API-Antworten.
func (s IdentifierSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Dedup entfernt Duplikate und behält die Reihenfolge des ersten Auftretens.
func Dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
