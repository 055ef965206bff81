package models

import (
	"fmt"
	"strings"
)

// Phase ist die klinische Entwicklungsphase eines Wirkstoffs.
type Phase int

const (
	PhaseUnknown Phase = iota
	Phase1
	Phase2
	Phase3
	Phase4
)

// AllPhases listet alle Phasen in der Reihenfolge des Reportings.
var AllPhases = []Phase{Phase1, Phase2, Phase3, Phase4, PhaseUnknown}

// ParsePhase liest den Wert der DEVELOPMENT_PHASE-Spalte. Leere oder
// unbekannte Werte landen im Bucket PhaseUnknown.
func ParsePhase(value string) Phase {
	switch strings.TrimSpace(value) {
	case "1":
		return Phase1
	case "2":
		return Phase2
	case "3":
		return Phase3
	case "4":
		return Phase4
	default:
		return PhaseUnknown
	}
}

// ParsePhaseName parst eine Phase aus der Konfiguration ("1".."4" oder "unknown").
func ParsePhaseName(name string) (Phase, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "unknown" {
		return PhaseUnknown, nil
	}
	p := ParsePhase(n)
	if p == PhaseUnknown {
		return PhaseUnknown, fmt.Errorf("invalid phase %q", name)
	}
	return p, nil
}

func (p Phase) String() string {
	if p == PhaseUnknown {
		return "unknown"
	}
	return fmt.Sprintf("%d", int(p))
}

// DrugRecord ist eine Zeile des Wirkstoffkatalogs.
type DrugRecord struct {
	ID           string
	Phase        Phase
	MoleculeType string
}

// TargetAssociation verknüpft einen Wirkstoff mit einem Target.
type TargetAssociation struct {
	DrugID   string
	TargetID string
}
