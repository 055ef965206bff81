package providers

import (
	"context"
	"errors"

	"drug-repo/models"
)

// ErrNotImplemented wird von Datenquellen zurückgegeben, die noch nicht angebunden sind.
var ErrNotImplemented = errors.New("provider not implemented")

// StageReporter nimmt die Zählerstände der einzelnen Pipeline-Stufen entgegen.
type StageReporter interface {
	ReportStage(stage string, count int)
}

// TargetSource liefert die UniProt-Accessions der gefilterten Wirkstoff-Targets.
type TargetSource interface {
	// Accessions führt Filterung und Cross-Referenzierung aus und gibt die de-duplizierten Accessions zurück.
	Accessions(ctx context.Context, reporter StageReporter) (models.IdentifierSet, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "chembl").
	Name() string
}

// Query beschreibt einen Aufruf des Domänenarchitektur-Tools.
type Query struct {
	Term       string // Accession (vorwärts) oder Architektur-Code (rückwärts)
	Vocabulary models.Vocabulary
	Organism   string // nur rückwärts: NCBI-Taxonomie-ID
}

// Reverse ist true für Abfragen, die auf einen Organismus eingeschränkt sind.
func (q Query) Reverse() bool {
	return q.Organism != ""
}

// ArchitectureLookup liefert die rohe Textausgabe des Domänenarchitektur-Tools.
type ArchitectureLookup interface {
	Lookup(ctx context.Context, q Query) ([]byte, error)
}
