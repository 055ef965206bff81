package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"drug-repo/config"
	"drug-repo/models"
)

// ErrRunNotFound wird zurückgegeben, wenn ein Lauf nicht existiert.
var ErrRunNotFound = errors.New("run not found")

// RunStore speichert Pipeline-Läufe und deren Kandidaten.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.PipelineRun) error
	SaveCandidates(ctx context.Context, runID string, candidates []models.Candidate) error
	GetRun(ctx context.Context, runID string) (*models.PipelineRun, error)
	ListRuns(ctx context.Context, limit int) ([]models.PipelineRun, error)
	Candidates(ctx context.Context, runID string) ([]models.Candidate, error)
}

// OpenPostgres verbindet sich mit der Datenbank und migriert die Tabellen.
func OpenPostgres(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.PipelineRun{}, &models.Candidate{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return db, nil
}

// GormRunStore speichert Läufe in PostgreSQL.
type GormRunStore struct {
	DB *gorm.DB
}

// NewGormRunStore erstellt einen GORM-basierten RunStore.
func NewGormRunStore(db *gorm.DB) *GormRunStore {
	return &GormRunStore{DB: db}
}

func (s *GormRunStore) SaveRun(ctx context.Context, run *models.PipelineRun) error {
	return s.DB.WithContext(ctx).Save(run).Error
}

// SaveCandidates ersetzt die Kandidaten eines Laufs.
func (s *GormRunStore) SaveCandidates(ctx context.Context, runID string, candidates []models.Candidate) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&models.Candidate{}).Error; err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}
		return tx.CreateInBatches(candidates, 500).Error
	})
}

func (s *GormRunStore) GetRun(ctx context.Context, runID string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	if err := s.DB.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

func (s *GormRunStore) ListRuns(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	query := s.DB.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var runs []models.PipelineRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *GormRunStore) Candidates(ctx context.Context, runID string) ([]models.Candidate, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	var candidates []models.Candidate
	if err := s.DB.WithContext(ctx).Where("run_id = ?", runID).Order("accession").Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

// MemoryRunStore hält Läufe im Speicher, wenn keine Datenbank konfiguriert ist.
type MemoryRunStore struct {
	mu         sync.RWMutex
	runs       map[string]models.PipelineRun
	candidates map[string][]models.Candidate
}

// NewMemoryRunStore erstellt einen leeren MemoryRunStore.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs:       make(map[string]models.PipelineRun),
		candidates: make(map[string][]models.Candidate),
	}
}

func (s *MemoryRunStore) SaveRun(ctx context.Context, run *models.PipelineRun) error {
	if run.RunID == "" {
		return errors.New("run id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = *run
	return nil
}

func (s *MemoryRunStore) SaveCandidates(ctx context.Context, runID string, candidates []models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return ErrRunNotFound
	}
	s.candidates[runID] = append([]models.Candidate(nil), candidates...)
	return nil
}

func (s *MemoryRunStore) GetRun(ctx context.Context, runID string) (*models.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &run, nil
}

func (s *MemoryRunStore) ListRuns(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	s.mu.RLock()
	runs := make([]models.PipelineRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryRunStore) Candidates(ctx context.Context, runID string) ([]models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.runs[runID]; !ok {
		return nil, ErrRunNotFound
	}
	out := append([]models.Candidate(nil), s.candidates[runID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Accession < out[j].Accession })
	return out, nil
}
