// Package drugbank ist die zweite Target-Quelle neben ChEMBL.
// Die Anbindung fehlt noch, ebenso eine Regel zum Zusammenführen mit ChEMBL.
package drugbank

import (
	"context"

	"go.uber.org/zap"

	"drug-repo/models"
	"drug-repo/providers"
)

// Source ist der Platzhalter für DrugBank.
type Source struct {
	Logger *zap.Logger
}

// NewSource erstellt die DrugBank-Quelle.
func NewSource(logger *zap.Logger) *Source {
	return &Source{Logger: logger}
}

func (s *Source) Name() string {
	return "drugbank"
}

// Accessions gibt immer providers.ErrNotImplemented zurück.
func (s *Source) Accessions(ctx context.Context, reporter providers.StageReporter) (models.IdentifierSet, error) {
	s.Logger.Warn("DrugBank-Quelle ist nicht implementiert.")
	return nil, providers.ErrNotImplemented
}
