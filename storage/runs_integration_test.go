//go:build integration

package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"drug-repo/models"
)

func TestGormRunStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PipelineRun{}, &models.Candidate{}))

	ctx := context.Background()
	s := NewGormRunStore(db)
	runID := uuid.NewString()

	run := &models.PipelineRun{RunID: runID, Source: "chembl", Status: models.RunStatusRunning}
	require.NoError(t, s.SaveRun(ctx, run))
	run.CandidateCount = 2
	run.Status = models.RunStatusSucceeded
	require.NoError(t, s.SaveRun(ctx, run))

	require.NoError(t, s.SaveCandidates(ctx, runID, []models.Candidate{
		{RunID: runID, Accession: "Smp_2", FoundVia: "pfam"},
		{RunID: runID, Accession: "Smp_1", FoundVia: "cath"},
	}))

	got, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, got.Status)
	assert.Equal(t, 2, got.CandidateCount)

	candidates, err := s.Candidates(ctx, runID)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Smp_1", candidates[0].Accession)

	_, err = s.GetRun(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrRunNotFound)
}
