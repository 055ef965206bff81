package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"drug-repo/models"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// Eingabedateien (ChEMBL-Exporte)
	DrugsFile   string `envconfig:"CHEMBL_DRUGS_FILE" default:"chembldrugs.txt"`
	TargetsFile string `envconfig:"CHEMBL_TARGETS_FILE" default:"chembl_drug_targets.txt"`
	MappingFile string `envconfig:"CHEMBL_UNIPROT_FILE" default:"chembl_uniprot_mapping.txt"`

	// Spaltennamen, werden über die Kopfzeile aufgelöst
	PhaseHeader    string `envconfig:"HEADER_PHASE" default:"DEVELOPMENT_PHASE"`
	TypeHeader     string `envconfig:"HEADER_DRUG_TYPE" default:"DRUG_TYPE"`
	IDHeader       string `envconfig:"HEADER_CHEMBL_ID" default:"CHEMBL_ID"`
	MoleculeHeader string `envconfig:"HEADER_MOLECULE_ID" default:"MOLECULE_CHEMBL_ID"`
	TargetHeader   string `envconfig:"HEADER_TARGET_ID" default:"TARGET_CHEMBL_ID"`

	OutputDir    string `envconfig:"OUTPUT_DIR" default:"out"`
	StrippedFile string `envconfig:"STRIPPED_FILE" default:"chembldrugs_stripped.txt"`

	// Filter
	TargetPhases []string `envconfig:"TARGET_PHASES" default:"4"`
	MoleculeType string   `envconfig:"MOLECULE_TYPE" default:"Synthetic Small Molecule"`
	// NCBI-Taxonomie: S. mansoni, S. japonicum, S. haematobium
	Organisms    []string `envconfig:"ORGANISMS" default:"6183,6182,6185"`
	Vocabularies []string `envconfig:"VOCABULARIES" default:"cath,pfam"`

	// Datenquelle für die Targets ("chembl" oder "drugbank")
	Source string `envconfig:"SOURCE" default:"chembl"`

	// Externes Domänenarchitektur-Tool
	ToolBinary      string        `envconfig:"TOOL_BINARY" default:"domain_lookup"`
	ToolForwardArgs string        `envconfig:"TOOL_FORWARD_ARGS" default:"--db {vocab} --query {term} --limit 1 --output {output}"`
	ToolReverseArgs string        `envconfig:"TOOL_REVERSE_ARGS" default:"--db {vocab} --query {term} --taxon {organism} --limit 500 --output {output}"`
	ToolCATHFlag    string        `envconfig:"TOOL_CATH_FLAG" default:"cath"`
	ToolPfamFlag    string        `envconfig:"TOOL_PFAM_FLAG" default:"pfam"`
	ToolMarker      string        `envconfig:"TOOL_MARKER" default:":PARENT"`
	ToolTimeout     time.Duration `envconfig:"TOOL_TIMEOUT" default:"2m"`
	ToolTempDir     string        `envconfig:"TOOL_TEMP_DIR"`
	CATHField       int           `envconfig:"CATH_FIELD" default:"2"`
	PfamField       int           `envconfig:"PFAM_FIELD" default:"2"`
	BridgeWorkers   int           `envconfig:"BRIDGE_WORKERS" default:"5"`

	// Datenbank für Läufe und Kandidaten, optional
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"drug_repo"`

	// S3-kompatibler Speicher für Artefakte, optional
	ArtifactS3Key    string `envconfig:"ARTIFACT_S3_KEY"`
	ArtifactS3Secret string `envconfig:"ARTIFACT_S3_SECRET"`
	ArtifactS3URL    string `envconfig:"ARTIFACT_S3_URL"`
	ArtifactS3Region string `envconfig:"ARTIFACT_S3_REGION" default:"us-east-1"`
	ArtifactS3Bucket string `envconfig:"ARTIFACT_S3_BUCKET"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`
	CronSchedule string `envconfig:"CRON_SCHEDULE"`

	LogFile  string `envconfig:"LOG_FILE" default:"log_drug_repo.log"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// DatabaseEnabled ist true, wenn Läufe in PostgreSQL gespeichert werden sollen.
func (c *Config) DatabaseEnabled() bool {
	return c.DBHost != ""
}

// ArtifactsEnabled ist true, wenn Artefakte nach S3 hochgeladen werden sollen.
func (c *Config) ArtifactsEnabled() bool {
	return c.ArtifactS3Bucket != ""
}

// Phases parst TARGET_PHASES.
func (c *Config) Phases() ([]models.Phase, error) {
	phases := make([]models.Phase, 0, len(c.TargetPhases))
	for _, name := range c.TargetPhases {
		p, err := models.ParsePhaseName(name)
		if err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	return phases, nil
}

// VocabularyList parst VOCABULARIES.
func (c *Config) VocabularyList() ([]models.Vocabulary, error) {
	out := make([]models.Vocabulary, 0, len(c.Vocabularies))
	for _, name := range c.Vocabularies {
		v, err := models.ParseVocabulary(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// VocabularyFlag gibt das Tool-Flag für eine Klassifikation zurück.
func (c *Config) VocabularyFlag(v models.Vocabulary) string {
	if v == models.VocabularyCATH {
		return c.ToolCATHFlag
	}
	return c.ToolPfamFlag
}

// VocabularyField gibt die Spalte zurück, in der das Tool die Codes liefert.
func (c *Config) VocabularyField(v models.Vocabulary) int {
	if v == models.VocabularyCATH {
		return c.CATHField
	}
	return c.PfamField
}

// Validate prüft Werte, die envconfig nicht prüfen kann.
func (c *Config) Validate() error {
	if _, err := c.Phases(); err != nil {
		return fmt.Errorf("TARGET_PHASES: %w", err)
	}
	if len(c.TargetPhases) == 0 {
		return fmt.Errorf("TARGET_PHASES must not be empty")
	}
	if _, err := c.VocabularyList(); err != nil {
		return fmt.Errorf("VOCABULARIES: %w", err)
	}
	if len(c.Organisms) == 0 {
		return fmt.Errorf("ORGANISMS must not be empty")
	}
	if c.BridgeWorkers < 1 {
		return fmt.Errorf("BRIDGE_WORKERS must be at least 1, got %d", c.BridgeWorkers)
	}
	if c.CATHField < 0 || c.PfamField < 0 {
		return fmt.Errorf("CATH_FIELD and PFAM_FIELD must not be negative")
	}
	if c.ToolBinary == "" {
		return fmt.Errorf("TOOL_BINARY must be set")
	}
	if c.ArtifactsEnabled() && (c.ArtifactS3URL == "" || c.ArtifactS3Key == "" || c.ArtifactS3Secret == "") {
		return fmt.Errorf("ARTIFACT_S3_BUCKET requires ARTIFACT_S3_URL, ARTIFACT_S3_KEY and ARTIFACT_S3_SECRET")
	}
	return nil
}

// Process liest .env und die Umgebungsvariablen ohne Validate, damit Aufrufer
// vorher noch Werte überschreiben können (z.B. CLI-Flags).
func Process() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return &c, err
	}
	return &c, nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	c, err := Process()
	if err != nil {
		return c, err
	}
	return c, c.Validate()
}
