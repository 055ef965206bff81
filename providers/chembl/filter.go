package chembl

import (
	"fmt"

	"go.uber.org/zap"

	"drug-repo/models"
	"drug-repo/providers"
	"drug-repo/tabular"
)

// FilterOptions steuert den Wirkstofffilter.
type FilterOptions struct {
	Phases       []models.Phase
	MoleculeType string

	PhaseHeader string
	TypeHeader  string
	IDHeader    string

	// StrippedPath: Ziel für die phasengefilterten Zeilen. Leer = nicht schreiben.
	StrippedPath string
}

// FilterResult ist das Ergebnis des Wirkstofffilters.
type FilterResult struct {
	PhaseCounts map[models.Phase]int
	PhaseRows   []tabular.Row
	DrugIDs     []string
}

// DrugFilter reduziert den Katalog auf Wirkstoffe in den Zielphasen mit passendem Molekültyp.
type DrugFilter struct {
	Options  FilterOptions
	Logger   *zap.Logger
	Reporter providers.StageReporter
}

// NewDrugFilter erstellt einen neuen DrugFilter.
func NewDrugFilter(opts FilterOptions, logger *zap.Logger, reporter providers.StageReporter) *DrugFilter {
	return &DrugFilter{Options: opts, Logger: logger, Reporter: reporter}
}

func (f *DrugFilter) report(stage string, count int) {
	if f.Reporter != nil {
		f.Reporter.ReportStage(stage, count)
	}
}

// Records löst die Spalten auf und wandelt alle Zeilen in DrugRecords um.
func (f *DrugFilter) Records(table *tabular.Table) ([]models.DrugRecord, error) {
	cols, err := table.Columns(f.Options.PhaseHeader, f.Options.TypeHeader, f.Options.IDHeader)
	if err != nil {
		return nil, err
	}
	records := make([]models.DrugRecord, len(table.Rows))
	for i, row := range table.Rows {
		records[i] = models.DrugRecord{
			Phase:        models.ParsePhase(row.Field(cols[0])),
			MoleculeType: row.Field(cols[1]),
			ID:           row.Field(cols[2]),
		}
	}
	return records, nil
}

// Filter wendet Phasen- und Molekültypfilter auf den geladenen Katalog an.
func (f *DrugFilter) Filter(table *tabular.Table) (*FilterResult, error) {
	records, err := f.Records(table)
	if err != nil {
		return nil, err
	}

	keep := make(map[models.Phase]bool, len(f.Options.Phases))
	for _, p := range f.Options.Phases {
		keep[p] = true
	}

	res := &FilterResult{PhaseCounts: make(map[models.Phase]int, len(models.AllPhases))}
	var phaseRecords []models.DrugRecord
	for i, rec := range records {
		res.PhaseCounts[rec.Phase]++
		if keep[rec.Phase] {
			res.PhaseRows = append(res.PhaseRows, table.Rows[i])
			phaseRecords = append(phaseRecords, rec)
		}
	}

	f.report(models.StageRawDrugs, len(records))
	fields := make([]zap.Field, 0, len(models.AllPhases))
	for _, p := range models.AllPhases {
		f.report("phase_"+p.String(), res.PhaseCounts[p])
		fields = append(fields, zap.Int("phase_"+p.String(), res.PhaseCounts[p]))
	}
	f.Logger.Info("Wirkstoffe pro Phase gezählt", fields...)
	f.report(models.StagePhaseFiltered, len(res.PhaseRows))

	for _, rec := range phaseRecords {
		if rec.MoleculeType == f.Options.MoleculeType {
			res.DrugIDs = append(res.DrugIDs, rec.ID)
		}
	}
	f.report(models.StageSmallMolecules, len(res.DrugIDs))
	f.Logger.Info("Wirkstoffe gefiltert",
		zap.Int("phase_filtered", len(res.PhaseRows)),
		zap.String("molecule_type", f.Options.MoleculeType),
		zap.Int("retained", len(res.DrugIDs)))

	return res, nil
}

// FilterFile lädt den Katalog, filtert ihn und schreibt die phasengefilterten Zeilen zur Kontrolle weg.
// Fehlende Spalten werden schon an der Kopfzeile erkannt, bevor der Katalog geladen wird.
func (f *DrugFilter) FilterFile(path string) (*FilterResult, error) {
	for _, header := range []string{f.Options.PhaseHeader, f.Options.TypeHeader, f.Options.IDHeader} {
		if _, err := tabular.HeaderColumn(path, header); err != nil {
			return nil, err
		}
	}
	table, err := tabular.Load(path)
	if err != nil {
		return nil, err
	}
	res, err := f.Filter(table)
	if err != nil {
		return nil, err
	}
	if f.Options.StrippedPath != "" {
		if err := tabular.WriteTable(f.Options.StrippedPath, table.Header, res.PhaseRows); err != nil {
			return nil, fmt.Errorf("write stripped catalogue: %w", err)
		}
		f.Logger.Info("Phasengefilterte Zeilen geschrieben",
			zap.String("path", f.Options.StrippedPath), zap.Int("rows", len(res.PhaseRows)))
	}
	return res, nil
}
