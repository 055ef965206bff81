package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"drug-repo/config"
	"drug-repo/models"
	"drug-repo/providers"
	"drug-repo/providers/chembl"
	"drug-repo/providers/domaintool"
	"drug-repo/providers/drugbank"
	"drug-repo/services"
	"drug-repo/storage"
)

var (
	pipelineRunsCounter *prometheus.CounterVec
	candidatesGauge     prometheus.Gauge
)

func init() {
	pipelineRunsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drug_repo_pipeline_runs_total",
			Help: "Total number of pipeline runs by final status.",
		},
		[]string{"status"},
	)
	candidatesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "drug_repo_candidates",
			Help: "Number of candidate proteins found by the most recent successful run.",
		},
	)
	prometheus.MustRegister(pipelineRunsCounter, candidatesGauge)
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drug-repo",
		Short: "Drug repositioning candidates for schistosomiasis",
		Long: `drug-repo filters the ChEMBL drug catalogue, maps the remaining drugs
to UniProt targets and looks up their CATH and Pfam domain architectures
to find proteins with the same architecture in Schistosoma species.

Configuration is read from the environment (and an optional .env file).`,
		SilenceUsage: true,
	}
	cmd.AddCommand(runCmd(), serveCmd())
	return cmd
}

func runCmd() *cobra.Command {
	var (
		alternate bool
		phases    []string
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Process()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := applyRunFlags(cfg, alternate, phases, workers); err != nil {
				return err
			}

			logging, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logging.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipeline, err := buildPipeline(cfg, logging)
			if err != nil {
				return err
			}
			run, err := pipeline.Run(ctx)
			recordRun(run, err)
			if err != nil {
				return err
			}
			fmt.Printf("run %s: %d candidate proteins (%s)\n", run.RunID, run.CandidateCount, cfg.OutputDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&alternate, "alternate", false, "Retain phase 3, phase 4 and unknown-phase drugs")
	cmd.Flags().StringSliceVar(&phases, "phases", nil, "Phases to retain (1-4, unknown); overrides TARGET_PHASES")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel domain tool invocations; overrides BRIDGE_WORKERS")
	return cmd
}

// applyRunFlags überschreibt die Umgebung mit den Flags von "run" und validiert danach.
func applyRunFlags(cfg *config.Config, alternate bool, phases []string, workers int) error {
	switch {
	case len(phases) > 0:
		cfg.TargetPhases = phases
	case alternate:
		cfg.TargetPhases = []string{"3", "4", "unknown"}
	}
	if workers > 0 {
		cfg.BridgeWorkers = workers
	}
	return cfg.Validate()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the pipeline on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logging, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logging.Sync()

			pipeline, err := buildPipeline(cfg, logging)
			if err != nil {
				logging.Fatal("Pipeline setup failed", zap.Error(err))
			}

			// Setup Cron
			if cfg.CronSchedule != "" {
				cronScheduler := cron.New()
				_, err := cronScheduler.AddFunc(cfg.CronSchedule, func() {
					logging.Info("Running scheduled pipeline run...")
					run, err := pipeline.Run(context.Background())
					recordRun(run, err)
					if err != nil {
						logging.Error("Scheduled run failed", zap.Error(err))
					}
				})
				if err != nil {
					logging.Fatal("Invalid CRON_SCHEDULE", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
				}
				cronScheduler.Start()
				defer cronScheduler.Stop()
			}

			router := newRouter(cfg, pipeline, logging)
			logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
			srv := &http.Server{
				Addr:              ":" + cfg.HTTPPort,
				Handler:           router,
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 15 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Fatal("Failed to run server", zap.Error(err))
			}
			return nil
		},
	}
}

// newLogger schreibt JSON-Logs nach stderr und in LOG_FILE (wird bei jedem Start überschrieben).
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}
	if cfg.LogFile != "" {
		if err := os.Truncate(cfg.LogFile, 0); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("can't truncate log file %s: %v", cfg.LogFile, err)
		}
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, cfg.LogFile)
	}
	logging, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}
	return logging, nil
}

// buildPipeline verdrahtet Quelle, Tool, Bridge, Speicher und Artefakte.
func buildPipeline(cfg *config.Config, logging *zap.Logger) (*services.PipelineService, error) {
	var source providers.TargetSource
	switch cfg.Source {
	case "chembl":
		source = chembl.NewSource(cfg, logging)
	case "drugbank":
		source = drugbank.NewSource(logging)
	default:
		return nil, fmt.Errorf("unknown SOURCE %q", cfg.Source)
	}

	var store storage.RunStore = storage.NewMemoryRunStore()
	if cfg.DatabaseEnabled() {
		db, err := storage.OpenPostgres(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		logging.Info("Successfully connected to runs database.")
		store = storage.NewGormRunStore(db)
	}

	var artifacts storage.ArtifactStore
	if cfg.ArtifactsEnabled() {
		s3Store, err := storage.NewS3ArtifactStore(cfg)
		if err != nil {
			return nil, fmt.Errorf("S3 client creation failed: %w", err)
		}
		artifacts = s3Store
	}

	vocabs, err := cfg.VocabularyList()
	if err != nil {
		return nil, err
	}
	fields := make(map[models.Vocabulary]int, len(vocabs))
	for _, v := range vocabs {
		fields[v] = cfg.VocabularyField(v)
	}
	bridge := services.NewArchitectureBridge(
		domaintool.NewClient(cfg, logging),
		logging,
		cfg.BridgeWorkers,
		cfg.ToolMarker,
		fields,
		cfg.Organisms,
	)
	return services.NewPipelineService(cfg, logging, source, bridge, store, artifacts)
}

func recordRun(run *models.PipelineRun, err error) {
	if run == nil {
		return
	}
	pipelineRunsCounter.WithLabelValues(run.Status).Inc()
	if err == nil {
		candidatesGauge.Set(float64(run.CandidateCount))
	}
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func newRouter(cfg *config.Config, pipeline *services.PipelineService, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "running": pipeline.Running()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/")
	api.Use(apiKeyAuthMiddleware(cfg))
	setupRunRoutes(api, pipeline, log)
	return router
}

func setupRunRoutes(router *gin.RouterGroup, pipeline *services.PipelineService, log *zap.Logger) {
	rg := router.Group("/runs")

	rg.GET("", func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		runs, err := pipeline.Store.ListRuns(c.Request.Context(), limit)
		if err != nil {
			log.Error("Listing runs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, runs)
	})

	rg.GET("/:id", func(c *gin.Context) {
		run, err := pipeline.Store.GetRun(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrRunNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			log.Error("Loading run failed", zap.String("run_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, run)
	})

	rg.GET("/:id/candidates", func(c *gin.Context) {
		candidates, err := pipeline.Store.Candidates(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrRunNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			log.Error("Loading candidates failed", zap.String("run_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if strings.Contains(c.GetHeader("Accept"), "text/tab-separated-values") {
			var b strings.Builder
			b.WriteString("accession\tfound_via\n")
			for _, cand := range candidates {
				b.WriteString(cand.Accession + "\t" + cand.FoundVia + "\n")
			}
			c.Data(http.StatusOK, "text/tab-separated-values", []byte(b.String()))
			return
		}
		c.JSON(http.StatusOK, candidates)
	})

	rg.POST("", func(c *gin.Context) {
		if pipeline.Running() {
			c.JSON(http.StatusConflict, gin.H{"error": services.ErrRunInProgress.Error()})
			return
		}
		go func() {
			run, err := pipeline.Run(context.Background())
			recordRun(run, err)
			if err != nil {
				log.Error("Async pipeline run failed", zap.Error(err))
				return
			}
			log.Info("Async pipeline run completed", zap.String("run_id", run.RunID), zap.Int("candidates", run.CandidateCount))
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Pipeline run triggered."})
	})
}
