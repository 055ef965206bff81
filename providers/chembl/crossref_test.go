package chembl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"drug-repo/mapping"
	"drug-repo/models"
	"drug-repo/tabular"
)

func newCrossReferencer(rep *recordingReporter) *CrossReferencer {
	x := &CrossReferencer{
		MoleculeHeader: "MOLECULE_CHEMBL_ID",
		TargetHeader:   "TARGET_CHEMBL_ID",
		Logger:         zap.NewNop(),
	}
	if rep != nil {
		x.Reporter = rep
	}
	return x
}

func TestAssociatedTargets(t *testing.T) {
	table, err := tabular.Parse("targets.txt", []string{
		"MOLECULE_CHEMBL_ID\tTARGET_CHEMBL_ID",
		"D1\tT1",
		"D2\tT2",
	})
	require.NoError(t, err)

	targets, err := newCrossReferencer(nil).AssociatedTargets(table, models.NewIdentifierSet("D1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"T1"}, targets.Sorted())
}

func TestAssociatedTargetsColumnOrderIndependent(t *testing.T) {
	table, err := tabular.Parse("targets.txt", []string{
		"TARGET_CHEMBL_ID\tACTION_TYPE\tMOLECULE_CHEMBL_ID",
		"T1\tINHIBITOR\tD1",
		"T2\tAGONIST\tD1",
		"T3\tAGONIST\tD9",
	})
	require.NoError(t, err)

	targets, err := newCrossReferencer(nil).AssociatedTargets(table, models.NewIdentifierSet("D1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"T1", "T2"}, targets.Sorted())
}

func TestMapTargetsDeduplicates(t *testing.T) {
	m := mapping.IdentifierMap{
		"T1": "P1",
		"T2": "P1",
		"T3": "P3",
		"T9": "P9",
	}

	mapped, accessions := newCrossReferencer(nil).MapTargets(models.NewIdentifierSet("T1", "T2", "T3"), m)

	assert.Equal(t, 3, mapped)
	assert.Equal(t, []string{"P1", "P3"}, accessions.Sorted())
}

func TestCrossReferenceFiles(t *testing.T) {
	dir := t.TempDir()
	targets := filepath.Join(dir, "targets.txt")
	mappingFile := filepath.Join(dir, "chembl_uniprot_mapping.txt")
	require.NoError(t, os.WriteFile(targets, []byte("MOLECULE_CHEMBL_ID\tTARGET_CHEMBL_ID\nD1\tT1\nD1\tT2\nD2\tT3\n"), 0o644))
	require.NoError(t, os.WriteFile(mappingFile, []byte("uniprot\tchembl\nP1\tT1\nP1\tT2\nP3\tT3\n"), 0o644))
	rep := newRecordingReporter()

	accessions, err := newCrossReferencer(rep).CrossReference(targets, mappingFile, models.NewIdentifierSet("D1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"P1"}, accessions.Sorted())
	assert.Equal(t, 2, rep.stages[models.StageTargetAssociated])
	assert.Equal(t, 2, rep.stages[models.StageMapped])
	assert.Equal(t, 1, rep.stages[models.StageDeduplicated])
}

func TestCrossReferenceMissingMapping(t *testing.T) {
	dir := t.TempDir()
	targets := filepath.Join(dir, "targets.txt")
	require.NoError(t, os.WriteFile(targets, []byte("MOLECULE_CHEMBL_ID\tTARGET_CHEMBL_ID\nD1\tT1\n"), 0o644))

	_, err := newCrossReferencer(nil).CrossReference(targets, filepath.Join(dir, "missing.txt"), models.NewIdentifierSet("D1"))
	assert.ErrorIs(t, err, tabular.ErrFileNotFound)
}
