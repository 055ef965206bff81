// Package chembl implementiert die Target-Quelle auf Basis der ChEMBL-Exportdateien.
package chembl

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"drug-repo/config"
	"drug-repo/models"
	"drug-repo/providers"
)

// Source kapselt Wirkstofffilter und Cross-Referenzierung für ChEMBL.
type Source struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewSource erstellt eine neue ChEMBL-Quelle.
func NewSource(cfg *config.Config, logger *zap.Logger) *Source {
	return &Source{Config: cfg, Logger: logger.With(zap.String("source", "chembl"))}
}

func (s *Source) Name() string {
	return "chembl"
}

// FilterOptions leitet die Filteroptionen aus der Konfiguration ab.
func (s *Source) FilterOptions() (FilterOptions, error) {
	phases, err := s.Config.Phases()
	if err != nil {
		return FilterOptions{}, err
	}
	opts := FilterOptions{
		Phases:       phases,
		MoleculeType: s.Config.MoleculeType,
		PhaseHeader:  s.Config.PhaseHeader,
		TypeHeader:   s.Config.TypeHeader,
		IDHeader:     s.Config.IDHeader,
	}
	if s.Config.StrippedFile != "" {
		opts.StrippedPath = filepath.Join(s.Config.OutputDir, s.Config.StrippedFile)
	}
	return opts, nil
}

// Accessions filtert den Katalog und bildet die gefilterten Wirkstoffe auf UniProt-Accessions ab.
func (s *Source) Accessions(ctx context.Context, reporter providers.StageReporter) (models.IdentifierSet, error) {
	opts, err := s.FilterOptions()
	if err != nil {
		return nil, err
	}
	filter := NewDrugFilter(opts, s.Logger, reporter)
	res, err := filter.FilterFile(s.Config.DrugsFile)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	xref := &CrossReferencer{
		MoleculeHeader: s.Config.MoleculeHeader,
		TargetHeader:   s.Config.TargetHeader,
		Logger:         s.Logger,
		Reporter:       reporter,
	}
	return xref.CrossReference(s.Config.TargetsFile, s.Config.MappingFile, models.NewIdentifierSet(res.DrugIDs...))
}
