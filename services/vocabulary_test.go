package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"drug-repo/models"
)

func TestParseCodesCATHScenario(t *testing.T) {
	out := []byte("# domain lookup\nQ9XYZ1\n:PARENT\nQ9XYZ1\t12\t1p.10.8.10_2.40.50.140\n")

	codes := ParseCodes(out, ":PARENT", models.VocabularyCATH, 2)

	assert.Equal(t, []string{"1.10.8.10", "2.40.50.140"}, codes)
}

func TestParseCodesAfterLongLine(t *testing.T) {
	long := strings.Repeat("x", 5*1024*1024)
	out := []byte(":PARENT\nP1\t" + long + "\t1.10.8.10\n:PARENT\nP2\t1\t2.40.50.140\n")

	codes := ParseCodes(out, ":PARENT", models.VocabularyCATH, 2)

	assert.Equal(t, []string{"2.40.50.140"}, codes)
}

func TestExtractRecords(t *testing.T) {
	out := []byte("header\r\n:PARENT\r\nA\t1\r\nB\t2\r\n:PARENT\r\nC\t3\r\n:PARENT\r\n")

	assert.Equal(t, [][]string{{"A", "1"}, {"C", "3"}}, ExtractRecords(out, ":PARENT"))
	assert.Empty(t, ExtractRecords([]byte("no marker\n"), ":PARENT"))
}

func TestParseCATHField(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  []string
	}{
		{"single code", "3.40.50.300", []string{"3.40.50.300"}},
		{"annotated single", "3.40.50p.300", []string{"3.40.50.300"}},
		{"list filters invalid", "1.10.8.10_2.40_x.1.2.3", []string{"1.10.8.10"}},
		{"three levels rejected", "1.10.8", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCATHField(tt.field))
		})
	}
}

func TestParsePfamField(t *testing.T) {
	assert.Equal(t, []string{"PF00069"}, ParsePfamField("PF00069"))
	assert.Equal(t, []string{"PF00069", "PF07714"}, ParsePfamField("PF00069.PF07714"))
	assert.Equal(t, []string{"PF00069"}, ParsePfamField("PF00069."))
	assert.Nil(t, ParsePfamField(" "))
}

func TestParseCodesWithoutMarker(t *testing.T) {
	out := []byte("P12345\t1\t1.10.8.10\n")

	assert.Empty(t, ParseCodes(out, ":PARENT", models.VocabularyCATH, 2))
	assert.Empty(t, ParseAccessions(out, ":PARENT"))
}

func TestParseCodesMarkerAsLastLine(t *testing.T) {
	assert.Empty(t, ParseCodes([]byte("x\n:PARENT\n"), ":PARENT", models.VocabularyPfam, 2))
}

func TestParseCodesShortRecord(t *testing.T) {
	assert.Empty(t, ParseCodes([]byte(":PARENT\nP1\t2\n"), ":PARENT", models.VocabularyPfam, 2))
}

func TestParseCodesMultipleMarkersDeduplicated(t *testing.T) {
	out := []byte(":PARENT\nA\t1\tPF1.PF2\r\n:PARENT\nB\t1\tPF2\n")

	assert.Equal(t, []string{"PF1", "PF2"}, ParseCodes(out, ":PARENT", models.VocabularyPfam, 2))
}

func TestParseAccessions(t *testing.T) {
	out := []byte("header\n:PARENT\nSmp_123450\t6183\t1.10.8.10\n:PARENT\nSmp_123450\t6183\n:PARENT\nSjp_0001\t6182\n")

	assert.Equal(t, []string{"Smp_123450", "Sjp_0001"}, ParseAccessions(out, ":PARENT"))
}
