package models

import (
	"fmt"
	"strings"
)

// Vocabulary ist eine der beiden Domänenarchitektur-Klassifikationen.
type Vocabulary string

const (
	// VocabularyCATH: hierarchische Strukturcodes, z.B. "1.10.8.10".
	VocabularyCATH Vocabulary = "cath"
	// VocabularyPfam: Sequenzdomänen-Codes, z.B. "PF00069".
	VocabularyPfam Vocabulary = "pfam"
)

// ParseVocabulary parst den Namen einer Klassifikation aus der Konfiguration.
func ParseVocabulary(name string) (Vocabulary, error) {
	switch v := Vocabulary(strings.ToLower(strings.TrimSpace(name))); v {
	case VocabularyCATH, VocabularyPfam:
		return v, nil
	default:
		return "", fmt.Errorf("unknown vocabulary %q", name)
	}
}
