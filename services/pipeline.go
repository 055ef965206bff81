package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"drug-repo/config"
	"drug-repo/models"
	"drug-repo/providers"
	"drug-repo/storage"
	"drug-repo/tabular"
)

// ErrRunInProgress: es läuft bereits ein Pipeline-Lauf.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// CandidatesFile ist der Name der Kandidatenliste im Ausgabeverzeichnis eines Laufs.
const CandidatesFile = "candidates.tsv"

// PipelineService kümmert sich um die Orchestrierung eines kompletten Laufs.
type PipelineService struct {
	Config       *config.Config
	Logger       *zap.Logger
	Source       providers.TargetSource
	Bridge       *ArchitectureBridge
	Store        storage.RunStore
	Artifacts    storage.ArtifactStore // optional
	Vocabularies []models.Vocabulary

	running atomic.Bool
}

// NewPipelineService erstellt eine neue Instanz des PipelineService.
func NewPipelineService(cfg *config.Config, logger *zap.Logger, source providers.TargetSource, bridge *ArchitectureBridge, store storage.RunStore, artifacts storage.ArtifactStore) (*PipelineService, error) {
	vocabs, err := cfg.VocabularyList()
	if err != nil {
		return nil, err
	}
	return &PipelineService{
		Config:       cfg,
		Logger:       logger,
		Source:       source,
		Bridge:       bridge,
		Store:        store,
		Artifacts:    artifacts,
		Vocabularies: vocabs,
	}, nil
}

// Running ist true, solange ein Lauf aktiv ist.
func (p *PipelineService) Running() bool {
	return p.running.Load()
}

// Run führt die Pipeline einmal vollständig aus. Schlägt eine Stufe fehl,
// wird der Lauf als failed gespeichert und abgebrochen.
func (p *PipelineService) Run(ctx context.Context) (*models.PipelineRun, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer p.running.Store(false)

	run := &models.PipelineRun{
		RunID:     uuid.NewString(),
		Source:    p.Source.Name(),
		Status:    models.RunStatusRunning,
		CreatedAt: time.Now(),
	}
	log := p.Logger.With(zap.String("run_id", run.RunID))
	if err := p.Store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	log.Info("Starte Pipeline-Lauf.", zap.String("source", run.Source))

	candidates, err := p.execute(ctx, run, log)
	if err == nil {
		err = p.persist(ctx, run, candidates, log)
	}
	run.Finish(err, time.Now())
	// Der Status wird auch bei abgebrochenem Kontext noch gespeichert.
	if saveErr := p.Store.SaveRun(context.WithoutCancel(ctx), run); saveErr != nil {
		log.Error("Lauf konnte nicht gespeichert werden", zap.Error(saveErr))
	}
	if err != nil {
		log.Error("Pipeline-Lauf fehlgeschlagen", zap.Error(err))
		return run, err
	}
	log.Info("Pipeline-Lauf abgeschlossen", zap.Int("candidates", run.CandidateCount))
	return run, nil
}

// execute: Quelle -> Vorwärts pro Klassifikation -> Rückwärts pro Klassifikation -> Vereinigung.
func (p *PipelineService) execute(ctx context.Context, run *models.PipelineRun, log *zap.Logger) ([]models.Candidate, error) {
	reporter := NewRunReporter(run, log)

	accessions, err := p.Source.Accessions(ctx, reporter)
	if err != nil {
		return nil, fmt.Errorf("%s source: %w", p.Source.Name(), err)
	}

	codes := make(map[models.Vocabulary]models.IdentifierSet, len(p.Vocabularies))
	for _, v := range p.Vocabularies {
		c, err := p.Bridge.Forward(ctx, accessions, v)
		if err != nil {
			return nil, fmt.Errorf("%s forward lookup: %w", v, err)
		}
		reporter.ReportStage(models.CodeStage(v), c.Len())
		codes[v] = c
	}

	found := make(map[string][]string)
	union := models.NewIdentifierSet()
	for _, v := range p.Vocabularies {
		ids, err := p.Bridge.Reverse(ctx, codes[v], v)
		if err != nil {
			return nil, fmt.Errorf("%s reverse lookup: %w", v, err)
		}
		log.Info("Organismus-Proteine gefunden", zap.String("vocabulary", string(v)), zap.Int("count", ids.Len()))
		for id := range ids {
			found[id] = append(found[id], string(v))
		}
		union.Merge(ids)
	}
	reporter.ReportStage(models.StageCandidates, union.Len())

	candidates := make([]models.Candidate, 0, union.Len())
	for _, acc := range union.Sorted() {
		candidates = append(candidates, models.Candidate{
			RunID:     run.RunID,
			Accession: acc,
			FoundVia:  strings.Join(found[acc], ","),
		})
	}
	return candidates, nil
}

// persist speichert die Kandidaten, schreibt die Kandidatenliste und lädt Artefakte hoch.
func (p *PipelineService) persist(ctx context.Context, run *models.PipelineRun, candidates []models.Candidate, log *zap.Logger) error {
	if err := p.Store.SaveCandidates(ctx, run.RunID, candidates); err != nil {
		return fmt.Errorf("save candidates: %w", err)
	}

	records := make([][]string, len(candidates))
	for i, c := range candidates {
		records[i] = []string{c.Accession, c.FoundVia}
	}
	candidatesPath := filepath.Join(p.Config.OutputDir, run.RunID, CandidatesFile)
	if err := tabular.WriteRecords(candidatesPath, []string{"accession", "found_via"}, records); err != nil {
		return err
	}
	log.Info("Kandidatenliste geschrieben", zap.String("path", candidatesPath))

	if p.Artifacts == nil {
		return nil
	}
	files := []string{candidatesPath}
	if p.Config.StrippedFile != "" {
		files = append(files, filepath.Join(p.Config.OutputDir, p.Config.StrippedFile))
	}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("Artefakt nicht lesbar, Upload übersprungen", zap.String("path", path), zap.Error(err))
			continue
		}
		key := run.RunID + "/" + filepath.Base(path)
		link, err := p.Artifacts.Upload(ctx, key, data)
		if err != nil {
			// Der Lauf zählt trotzdem als erfolgreich.
			log.Error("Artefakt-Upload fehlgeschlagen", zap.String("key", key), zap.Error(err))
			continue
		}
		log.Info("Artefakt hochgeladen", zap.String("link", link))
	}
	return nil
}
