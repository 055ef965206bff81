package chembl

import (
	"go.uber.org/zap"

	"drug-repo/mapping"
	"drug-repo/models"
	"drug-repo/providers"
	"drug-repo/tabular"
)

// CrossReferencer verbindet gefilterte Wirkstoffe über die Target-Datei mit UniProt-Accessions.
type CrossReferencer struct {
	MoleculeHeader string
	TargetHeader   string
	Logger         *zap.Logger
	Reporter       providers.StageReporter
}

func (c *CrossReferencer) report(stage string, count int) {
	if c.Reporter != nil {
		c.Reporter.ReportStage(stage, count)
	}
}

// Associations liest die Wirkstoff-Target-Paare aus der geladenen Target-Datei.
func (c *CrossReferencer) Associations(table *tabular.Table) ([]models.TargetAssociation, error) {
	cols, err := table.Columns(c.MoleculeHeader, c.TargetHeader)
	if err != nil {
		return nil, err
	}
	out := make([]models.TargetAssociation, 0, len(table.Rows))
	for _, row := range table.Rows {
		out = append(out, models.TargetAssociation{
			DrugID:   row.Field(cols[0]),
			TargetID: row.Field(cols[1]),
		})
	}
	return out, nil
}

// AssociatedTargets gibt die Targets aller Paare zurück, deren Wirkstoff in drugs liegt.
func (c *CrossReferencer) AssociatedTargets(table *tabular.Table, drugs models.IdentifierSet) (models.IdentifierSet, error) {
	assocs, err := c.Associations(table)
	if err != nil {
		return nil, err
	}
	targets := models.NewIdentifierSet()
	for _, a := range assocs {
		if drugs.Has(a.DrugID) {
			targets.Add(a.TargetID)
		}
	}
	return targets, nil
}

// MapTargets behält die Mapping-Einträge, deren Schlüssel ein Target ist,
// und gibt die Anzahl der Treffer sowie die de-duplizierten Accessions zurück.
func (c *CrossReferencer) MapTargets(targets models.IdentifierSet, m mapping.IdentifierMap) (int, models.IdentifierSet) {
	mapped := 0
	accessions := models.NewIdentifierSet()
	for key, value := range m {
		if targets.Has(key) {
			mapped++
			accessions.Add(value)
		}
	}
	return mapped, accessions
}

// CrossReference führt beide Schritte auf Basis der Dateien aus.
func (c *CrossReferencer) CrossReference(targetsPath, mappingPath string, drugs models.IdentifierSet) (models.IdentifierSet, error) {
	table, err := tabular.Load(targetsPath)
	if err != nil {
		return nil, err
	}
	targets, err := c.AssociatedTargets(table, drugs)
	if err != nil {
		return nil, err
	}
	c.report(models.StageTargetAssociated, targets.Len())

	m, stats, err := mapping.InvertFile(mappingPath)
	if err != nil {
		return nil, err
	}
	if stats.Overwrites > 0 || stats.Skipped > 0 {
		c.Logger.Debug("Mapping-Datei invertiert",
			zap.Int("rows", stats.Rows), zap.Int("overwrites", stats.Overwrites), zap.Int("skipped", stats.Skipped))
	}

	mapped, accessions := c.MapTargets(targets, m)
	c.report(models.StageMapped, mapped)
	c.report(models.StageDeduplicated, accessions.Len())

	c.Logger.Info("Targets cross-referenziert",
		zap.Int("drugs", drugs.Len()),
		zap.Int("targets", targets.Len()),
		zap.Int("mapped", mapped),
		zap.Int("accessions", accessions.Len()))
	return accessions, nil
}
