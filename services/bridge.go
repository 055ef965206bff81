package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"drug-repo/models"
	"drug-repo/providers"
	"drug-repo/providers/domaintool"
)

// ArchitectureBridge übersetzt Accessions in Architektur-Codes und zurück.
type ArchitectureBridge struct {
	Lookup    providers.ArchitectureLookup
	Logger    *zap.Logger
	Workers   int
	Marker    string
	Fields    map[models.Vocabulary]int
	Organisms []string
}

// NewArchitectureBridge erstellt eine neue Bridge.
func NewArchitectureBridge(lookup providers.ArchitectureLookup, logger *zap.Logger, workers int, marker string, fields map[models.Vocabulary]int, organisms []string) *ArchitectureBridge {
	if workers < 1 {
		workers = 1
	}
	return &ArchitectureBridge{
		Lookup:    lookup,
		Logger:    logger,
		Workers:   workers,
		Marker:    marker,
		Fields:    fields,
		Organisms: organisms,
	}
}

// Forward ruft für jede Accession das Tool auf und sammelt die Architektur-Codes.
// Fehlgeschlagene Aufrufe und Ausgaben ohne Marker tragen nichts bei.
func (b *ArchitectureBridge) Forward(ctx context.Context, accessions models.IdentifierSet, v models.Vocabulary) (models.IdentifierSet, error) {
	field := b.Fields[v]
	queries := make([]providers.Query, 0, accessions.Len())
	for _, acc := range accessions.Sorted() {
		queries = append(queries, providers.Query{Term: acc, Vocabulary: v})
	}
	return b.run(ctx, queries, func(out []byte) []string {
		return ParseCodes(out, b.Marker, v, field)
	})
}

// Reverse ruft für jedes Paar aus Code und Organismus das Tool auf und sammelt die Accessions.
func (b *ArchitectureBridge) Reverse(ctx context.Context, codes models.IdentifierSet, v models.Vocabulary) (models.IdentifierSet, error) {
	queries := make([]providers.Query, 0, codes.Len()*len(b.Organisms))
	for _, code := range codes.Sorted() {
		for _, org := range b.Organisms {
			queries = append(queries, providers.Query{Term: code, Vocabulary: v, Organism: org})
		}
	}
	return b.run(ctx, queries, func(out []byte) []string {
		return ParseAccessions(out, b.Marker)
	})
}

// run verarbeitet die Abfragen parallel (begrenzt auf Workers) und führt die Ergebnisse zusammen.
func (b *ArchitectureBridge) run(ctx context.Context, queries []providers.Query, parse func([]byte) []string) (models.IdentifierSet, error) {
	result := models.NewIdentifierSet()
	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, b.Workers)

	failed, empty := 0, 0
dispatch:
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}
		wg.Add(1)

		go func(q providers.Query) {
			defer wg.Done()
			defer func() { <-semaphore }()

			log := b.Logger.With(zap.String("term", q.Term), zap.String("vocabulary", string(q.Vocabulary)))
			if q.Organism != "" {
				log = log.With(zap.String("organism", q.Organism))
			}

			out, err := b.Lookup.Lookup(ctx, q)
			if err != nil {
				mu.Lock()
				defer mu.Unlock()
				if errors.Is(err, domaintool.ErrEmptyOutput) {
					empty++
					log.Debug("Tool lieferte keine Ausgabe.")
					return
				}
				failed++
				if ctx.Err() == nil {
					log.Warn("Tool-Aufruf fehlgeschlagen, wird übersprungen", zap.Error(err))
				}
				return
			}

			ids := parse(out)
			if len(ids) == 0 {
				log.Debug("Kein Eintrag nach Marker gefunden.")
			}
			mu.Lock()
			result.Add(ids...)
			mu.Unlock()
		}(q)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.Logger.Info("Tool-Aufrufe abgeschlossen",
		zap.Int("queries", len(queries)),
		zap.Int("failed", failed),
		zap.Int("empty", empty),
		zap.Int("results", result.Len()))
	return result, nil
}
