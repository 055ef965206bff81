package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"drug-repo/models"
)

var stageGauge = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "drug_repo_stage_count",
		Help: "Number of identifiers left after each pipeline stage in the most recent run.",
	},
	[]string{"stage"},
)

func init() {
	prometheus.MustRegister(stageGauge)
}

// RunReporter protokolliert Stufen-Zählerstände, setzt die Prometheus-Gauge
// und überträgt die Werte in den Lauf.
type RunReporter struct {
	mu     sync.Mutex
	run    *models.PipelineRun
	logger *zap.Logger
}

// NewRunReporter erstellt einen Reporter für einen Lauf.
func NewRunReporter(run *models.PipelineRun, logger *zap.Logger) *RunReporter {
	return &RunReporter{run: run, logger: logger}
}

func (r *RunReporter) ReportStage(stage string, count int) {
	r.mu.Lock()
	r.run.SetStage(stage, count)
	r.mu.Unlock()

	stageGauge.WithLabelValues(stage).Set(float64(count))
	r.logger.Info("Stufe abgeschlossen", zap.String("stage", stage), zap.Int("count", count))
}
