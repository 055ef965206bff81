package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drug-repo/models"
)

func TestMemoryRunStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRunStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, &models.PipelineRun{RunID: "old", CreatedAt: base, Status: models.RunStatusSucceeded}))
	require.NoError(t, s.SaveRun(ctx, &models.PipelineRun{RunID: "new", CreatedAt: base.Add(time.Hour), Status: models.RunStatusRunning}))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID)

	runs, err = s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	// Updates überschreiben den gespeicherten Stand.
	require.NoError(t, s.SaveRun(ctx, &models.PipelineRun{RunID: "new", CreatedAt: base.Add(time.Hour), Status: models.RunStatusSucceeded}))
	run, err := s.GetRun(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, run.Status)

	_, err = s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestMemoryRunStoreCandidates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRunStore()

	assert.ErrorIs(t, s.SaveCandidates(ctx, "r1", nil), ErrRunNotFound)

	require.NoError(t, s.SaveRun(ctx, &models.PipelineRun{RunID: "r1"}))
	require.NoError(t, s.SaveCandidates(ctx, "r1", []models.Candidate{
		{RunID: "r1", Accession: "Smp_2", FoundVia: "pfam"},
		{RunID: "r1", Accession: "Smp_1", FoundVia: "cath,pfam"},
	}))

	got, err := s.Candidates(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Smp_1", got[0].Accession)

	_, err = s.Candidates(ctx, "r2")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestMemoryRunStoreRequiresRunID(t *testing.T) {
	assert.Error(t, NewMemoryRunStore().SaveRun(context.Background(), &models.PipelineRun{}))
}

func TestObjectLink(t *testing.T) {
	assert.Equal(t, "https://s3.example.org/runs/r1/candidates.tsv", ObjectLink("https://s3.example.org/", "runs", "r1/candidates.tsv"))
}
