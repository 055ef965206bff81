package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"drug-repo/config"
	"drug-repo/models"
	"drug-repo/providers"
	"drug-repo/storage"
	"drug-repo/tabular"
)

type fakeSource struct {
	accessions models.IdentifierSet
	err        error
	block      chan struct{}
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Accessions(ctx context.Context, reporter providers.StageReporter) (models.IdentifierSet, error) {
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	reporter.ReportStage(models.StageRawDrugs, 10)
	reporter.ReportStage(models.StageDeduplicated, s.accessions.Len())
	return s.accessions, nil
}

type fakeArtifacts struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *fakeArtifacts) Upload(ctx context.Context, key string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.keys = append(a.keys, key)
	return "s3://bucket/" + key, nil
}

func testPipeline(t *testing.T, source providers.TargetSource, lookup providers.ArchitectureLookup, artifacts storage.ArtifactStore) (*PipelineService, *storage.MemoryRunStore) {
	t.Helper()
	cfg := &config.Config{
		OutputDir:    t.TempDir(),
		StrippedFile: "chembldrugs_stripped.txt",
		Vocabularies: []string{"cath", "pfam"},
	}
	store := storage.NewMemoryRunStore()
	p, err := NewPipelineService(cfg, zap.NewNop(), source, testBridge(lookup, 2), store, artifacts)
	require.NoError(t, err)
	return p, store
}

func scenarioLookup() *fakeLookup {
	lookup := newFakeLookup()
	lookup.set(models.VocabularyCATH, "P1", "", ":PARENT\nP1\t1\t1p.10.8.10\n")
	lookup.set(models.VocabularyPfam, "P1", "", ":PARENT\nP1\t1\tPF00069\n")
	lookup.set(models.VocabularyCATH, "1.10.8.10", "6183", ":PARENT\nSmp_1\t6183\n")
	lookup.set(models.VocabularyPfam, "PF00069", "6183", ":PARENT\nSmp_1\t6183\n")
	lookup.set(models.VocabularyPfam, "PF00069", "6182", ":PARENT\nSjp_9\t6182\n")
	return lookup
}

func TestPipelineRun(t *testing.T) {
	artifacts := &fakeArtifacts{}
	p, store := testPipeline(t, &fakeSource{accessions: models.NewIdentifierSet("P1", "P2")}, scenarioLookup(), artifacts)

	run, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSucceeded, run.Status)
	assert.Equal(t, "fake", run.Source)
	assert.Equal(t, 10, run.RawDrugs)
	assert.Equal(t, 2, run.Deduplicated)
	assert.Equal(t, 1, run.CATHCodes)
	assert.Equal(t, 1, run.PfamCodes)
	assert.Equal(t, 2, run.CandidateCount)
	assert.NotNil(t, run.FinishedAt)

	stored, err := store.GetRun(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, stored.Status)

	candidates, err := store.Candidates(context.Background(), run.RunID)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Sjp_9", candidates[0].Accession)
	assert.Equal(t, "pfam", candidates[0].FoundVia)
	assert.Equal(t, "Smp_1", candidates[1].Accession)
	assert.Equal(t, "cath,pfam", candidates[1].FoundVia)

	lines, err := tabular.ReadLines(filepath.Join(p.Config.OutputDir, run.RunID, CandidatesFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"accession\tfound_via", "Sjp_9\tpfam", "Smp_1\tcath,pfam"}, lines)

	// Der gefilterte Katalog existiert hier nicht, nur die Kandidatenliste wird hochgeladen.
	assert.Equal(t, []string{run.RunID + "/" + CandidatesFile}, artifacts.keys)
}

func TestPipelineUploadsStrippedCatalogue(t *testing.T) {
	artifacts := &fakeArtifacts{}
	p, _ := testPipeline(t, &fakeSource{accessions: models.NewIdentifierSet("P1")}, scenarioLookup(), artifacts)
	require.NoError(t, os.WriteFile(filepath.Join(p.Config.OutputDir, "chembldrugs_stripped.txt"), []byte("CHEMBL_ID\n"), 0o644))

	run, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		run.RunID + "/" + CandidatesFile,
		run.RunID + "/chembldrugs_stripped.txt",
	}, artifacts.keys)
}

func TestPipelineUploadFailureIsNotFatal(t *testing.T) {
	p, _ := testPipeline(t, &fakeSource{accessions: models.NewIdentifierSet("P1")}, scenarioLookup(), &fakeArtifacts{err: errors.New("denied")})

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, run.Status)
}

func TestPipelineSourceFailureMarksRunFailed(t *testing.T) {
	p, store := testPipeline(t, &fakeSource{err: providers.ErrNotImplemented}, newFakeLookup(), nil)

	run, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrNotImplemented)

	stored, getErr := store.GetRun(context.Background(), run.RunID)
	require.NoError(t, getErr)
	assert.Equal(t, models.RunStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "not implemented")
	assert.False(t, p.Running())
}

func TestPipelineRejectsConcurrentRun(t *testing.T) {
	src := &fakeSource{accessions: models.NewIdentifierSet(), block: make(chan struct{})}
	p, _ := testPipeline(t, src, newFakeLookup(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background())
		done <- err
	}()
	require.Eventually(t, p.Running, time.Second, 5*time.Millisecond)

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(src.block)
	require.NoError(t, <-done)
}

func TestNewPipelineServiceRejectsUnknownVocabulary(t *testing.T) {
	cfg := &config.Config{Vocabularies: []string{"smart"}}
	_, err := NewPipelineService(cfg, zap.NewNop(), &fakeSource{}, nil, storage.NewMemoryRunStore(), nil)
	assert.Error(t, err)
}
