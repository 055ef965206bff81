package models

import (
	"time"
)

// Status eines Pipeline-Laufs.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Stufen der Pipeline, deren Zählerstände protokolliert werden.
const (
	StageRawDrugs         = "raw_drugs"
	StagePhaseFiltered    = "phase_filtered"
	StageSmallMolecules   = "small_molecules"
	StageTargetAssociated = "target_associated"
	StageMapped           = "mapped"
	StageDeduplicated     = "deduplicated"
	StageCATHCodes        = "cath_codes"
	StagePfamCodes        = "pfam_codes"
	StageCandidates       = "candidates"
)

// CodeStage gibt die Stufe für die Codes einer Klassifikation zurück.
func CodeStage(v Vocabulary) string {
	return string(v) + "_codes"
}

// PipelineRun repräsentiert einen Lauf der Pipeline und dessen Schwund pro Stufe.
type PipelineRun struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RunID      string     `json:"run_id" gorm:"column:run_id;uniqueIndex;not null"`
	Source     string     `json:"source"`
	Status     string     `json:"status" gorm:"index"`
	Error      string     `json:"error,omitempty" gorm:"type:text"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	RawDrugs         int `json:"raw_drugs"`
	PhaseFiltered    int `json:"phase_filtered"`
	SmallMolecules   int `json:"small_molecules"`
	TargetAssociated int `json:"target_associated"`
	Mapped           int `json:"mapped"`
	Deduplicated     int `json:"deduplicated"`
	CATHCodes        int `json:"cath_codes" gorm:"column:cath_codes"`
	PfamCodes        int `json:"pfam_codes"`
	CandidateCount   int `json:"candidate_count"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// SetStage überträgt den Zählerstand einer Stufe in das passende Feld.
// Unbekannte Stufen (z.B. phase_1) werden ignoriert.
func (r *PipelineRun) SetStage(stage string, count int) {
	switch stage {
	case StageRawDrugs:
		r.RawDrugs = count
	case StagePhaseFiltered:
		r.PhaseFiltered = count
	case StageSmallMolecules:
		r.SmallMolecules = count
	case StageTargetAssociated:
		r.TargetAssociated = count
	case StageMapped:
		r.Mapped = count
	case StageDeduplicated:
		r.Deduplicated = count
	case StageCATHCodes:
		r.CATHCodes = count
	case StagePfamCodes:
		r.PfamCodes = count
	case StageCandidates:
		r.CandidateCount = count
	}
}

// Finish markiert den Lauf als beendet. Ein Fehler setzt den Status auf failed.
func (r *PipelineRun) Finish(err error, now time.Time) {
	r.FinishedAt = &now
	if err != nil {
		r.Status = RunStatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunStatusSucceeded
}

// Candidate ist ein organismusspezifisches Protein, das ein Lauf gefunden hat.
type Candidate struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	RunID     string `json:"run_id" gorm:"column:run_id;index;not null"`
	Accession string `json:"accession" gorm:"not null"`
	FoundVia  string `json:"found_via"` // z.B. "cath,pfam"
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Candidate) TableName() string {
	return "candidates"
}
