package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func percentages(records []DifferentialRecord) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.Percentage)
	}
	return out
}

func names(records []DifferentialRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func TestExtractDifferentialsPipeUnchangedAboveThreshold(t *testing.T) {
	got := ExtractDifferentials("40% | FIP | desc2\n85% | Parvovirus | desc")

	require.Len(t, got, 2)
	assert.Equal(t, DifferentialRecord{Percentage: 85, Name: "Parvovirus", Description: "desc"}, got[0])
	assert.Equal(t, DifferentialRecord{Percentage: 40, Name: "FIP", Description: "desc2"}, got[1])
}

func TestExtractDifferentialsSingleCompressedLine(t *testing.T) {
	got := ExtractDifferentials("12% | X | y")

	require.Len(t, got, 1)
	assert.Equal(t, 75, got[0].Percentage)
	assert.Equal(t, "X", got[0].Name)
	assert.Equal(t, "y", got[0].Description)
}

func TestExtractDifferentialsRescaleDecaysByRank(t *testing.T) {
	got := ExtractDifferentials("20% | A\n10% | B\n5% | C\n1% | D")

	// scale 75/20 = 3.75; D: 1*3.75*0.85 rounds to 3 and is clamped to 5
	assert.Equal(t, []int{75, 36, 17, 5}, percentages(got))
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(got))
}

func TestExtractDifferentialsAllZeroUsesRank(t *testing.T) {
	got := ExtractDifferentials("0% | A | a\n0% | B | b\n0% | C | c\n0% | D | d\n0% | E | e\n0% | F | f\n0% | G | g")

	assert.Equal(t, []int{80, 65, 50, 35, 20, 10, 10}, percentages(got))
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G"}, names(got))
}

func TestExtractDifferentialsMixedGrammars(t *testing.T) {
	text := `| % | Diagnosis | Rationale |
|---|---|---|
30% - Foreign body - Toy missing from home
1. **Parvovirus** (85%) - Young unvaccinated dog
Some prose line without a likelihood.
- **Acute pancreatitis** (Likelihood: 60%): Recent fatty meal
### Less likely
| 10% | Hypoadrenocorticism | Check basal cortisol |`

	got := ExtractDifferentials(text)

	require.Len(t, got, 4)
	assert.Equal(t, []string{"Parvovirus", "Acute pancreatitis", "Foreign body", "Hypoadrenocorticism"}, names(got))
	assert.Equal(t, []int{85, 60, 30, 10}, percentages(got))
	assert.Equal(t, "Young unvaccinated dog", got[0].Description)
	assert.Equal(t, "Recent fatty meal", got[1].Description)
	assert.Equal(t, "Toy missing from home", got[2].Description)
	assert.Equal(t, "Check basal cortisol", got[3].Description)
}

func TestExtractDifferentialsBoldWrappedPercentage(t *testing.T) {
	got := ExtractDifferentials("**Chronic kidney disease (70%)** - azotaemia with isosthenuria")

	require.Len(t, got, 1)
	assert.Equal(t, "Chronic kidney disease", got[0].Name)
	assert.Equal(t, 70, got[0].Percentage)
	assert.Equal(t, "azotaemia with isosthenuria", got[0].Description)
}

func TestExtractDifferentialsOptionalDescription(t *testing.T) {
	got := ExtractDifferentials("55% - Diabetes mellitus")

	require.Len(t, got, 1)
	assert.Equal(t, "Diabetes mellitus", got[0].Name)
	assert.Empty(t, got[0].Description)
}

func TestExtractDifferentialsCapsAtHundred(t *testing.T) {
	got := ExtractDifferentials("150% | Lymphoma | mediastinal mass")

	require.Len(t, got, 1)
	assert.Equal(t, 100, got[0].Percentage)
}

func TestExtractDifferentialsNoMatches(t *testing.T) {
	assert.Empty(t, ExtractDifferentials("Nothing structured here.\n\n"))
	assert.Empty(t, ExtractDifferentials(""))
}

func TestExtractDifferentialsCustomTuning(t *testing.T) {
	tuning := DefaultTuning()
	tuning.CompressedBelow = 50
	tuning.TargetCeiling = 90

	got := extractDifferentials("45% | A | a", tuning)

	require.Len(t, got, 1)
	assert.Equal(t, 90, got[0].Percentage)
}

func TestExtractDifferentialsPipeWithListPrefix(t *testing.T) {
	for _, line := range []string{
		"1. 85% | Parvovirus | young dog",
		"2) 85% | Parvovirus | young dog",
		"- 85% | Parvovirus | young dog",
		"* **85%** | Parvovirus | young dog",
		"• 85% | Parvovirus | young dog",
	} {
		got := ExtractDifferentials(line)
		require.Len(t, got, 1, line)
		assert.Equal(t, DifferentialRecord{Percentage: 85, Name: "Parvovirus", Description: "young dog"}, got[0], line)
	}
}

func TestAnalyzeNumberedPipeReply(t *testing.T) {
	res := Analyze("## Ranked Differential Diagnoses\n1. 85% | Parvovirus | young dog\n2. 40% | Dietary indiscretion | garbage\n\n## Treatment Plan\nCATEGORY: Fluids\nLRS 60 ml/kg/day")

	assert.Equal(t, []string{"Parvovirus", "Dietary indiscretion"}, names(res.Differentials))
	assert.Equal(t, []int{85, 40}, percentages(res.Differentials))
}
