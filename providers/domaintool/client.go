// Package domaintool ruft das externe Domänenarchitektur-Tool als Subprozess auf.
//
// Jeder Aufruf schreibt in eine eigene temporäre Datei, sodass parallele
// Aufrufe sich nicht gegenseitig die Ausgabe überschreiben.
package domaintool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"drug-repo/config"
	"drug-repo/models"
	"drug-repo/providers"
)

// ErrEmptyOutput: das Tool lief erfolgreich, hat aber nichts geschrieben.
var ErrEmptyOutput = errors.New("domain tool produced no output")

// Client implementiert providers.ArchitectureLookup.
type Client struct {
	Binary      string
	ForwardArgs []string
	ReverseArgs []string
	Flags       map[models.Vocabulary]string
	Timeout     time.Duration
	TempDir     string
	Logger      *zap.Logger
}

var _ providers.ArchitectureLookup = (*Client)(nil)

// NewClient erstellt einen Client aus der Konfiguration.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		Binary:      cfg.ToolBinary,
		ForwardArgs: strings.Fields(cfg.ToolForwardArgs),
		ReverseArgs: strings.Fields(cfg.ToolReverseArgs),
		Flags: map[models.Vocabulary]string{
			models.VocabularyCATH: cfg.VocabularyFlag(models.VocabularyCATH),
			models.VocabularyPfam: cfg.VocabularyFlag(models.VocabularyPfam),
		},
		Timeout: cfg.ToolTimeout,
		TempDir: cfg.ToolTempDir,
		Logger:  logger.With(zap.String("tool", cfg.ToolBinary)),
	}
}

// Args setzt die Platzhalter {term}, {vocab}, {organism} und {output} ein.
func (c *Client) Args(q providers.Query, output string) []string {
	tmpl := c.ForwardArgs
	if q.Reverse() {
		tmpl = c.ReverseArgs
	}
	flag := c.Flags[q.Vocabulary]
	if flag == "" {
		flag = string(q.Vocabulary)
	}
	r := strings.NewReplacer(
		"{term}", q.Term,
		"{vocab}", flag,
		"{organism}", q.Organism,
		"{output}", output,
	)
	args := make([]string, len(tmpl))
	for i, a := range tmpl {
		args[i] = r.Replace(a)
	}
	return args
}

// Lookup ruft das Tool für eine Abfrage auf und gibt den Inhalt der Ausgabedatei zurück.
func (c *Client) Lookup(ctx context.Context, q providers.Query) ([]byte, error) {
	out, err := os.CreateTemp(c.TempDir, "domaintool-*.txt")
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := c.Args(q, outPath)
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.WaitDelay = 5 * time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	c.Logger.Debug("Tool-Aufruf beendet",
		zap.String("term", q.Term),
		zap.String("vocabulary", string(q.Vocabulary)),
		zap.String("organism", q.Organism),
		zap.Duration("duration", time.Since(start)))

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("domain tool timed out after %v", c.Timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("domain tool exited with code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("run domain tool: %w", runErr)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read tool output: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyOutput
	}
	return data, nil
}
