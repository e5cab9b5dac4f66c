package analysis

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DifferentialRecord is one ranked candidate diagnosis.
type DifferentialRecord struct {
	Percentage  int    `json:"percentage"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// lineGrammar recovers (percentage, name, description) from one layout.
type lineGrammar struct {
	name string
	re   *regexp.Regexp
	pct  int
	nm   int
	desc int
}

// Tried in order; the first match wins.
var lineGrammars = []lineGrammar{
	{
		// 85% | Parvovirus | rationale   (also bulleted, numbered or as a table row)
		name: "pipe",
		re:   regexp.MustCompile(`^\|?\s*(?:[-*•]\s+)?(?:\d+[.)]\s+)?(?:\*\*)?~?(\d{1,3})(?:\.\d+)?\s*%(?:\*\*)?\s*\|\s*([^|]+?)\s*(?:\|\s*(.*?))?\s*\|?\s*$`),
		pct:  1, nm: 2, desc: 3,
	},
	{
		// 1. Parvovirus (85%) - rationale
		name: "numbered",
		re:   regexp.MustCompile(`^\d+[.)]\s+(.+?)\s*\([^)\d]*(\d{1,3})(?:\.\d+)?\s*%[^)]*\)(?:\*\*)?\s*(?:[-–—:]\s*)?(.*)$`),
		pct:  2, nm: 1, desc: 3,
	},
	{
		// **Parvovirus** (85%): rationale
		name: "bold",
		re:   regexp.MustCompile(`^(?:[-*•]\s+)?\*\*([^*]+?)(?:\*\*)?\s*\([^)\d]*(\d{1,3})(?:\.\d+)?\s*%[^)]*\)(?:\*\*)?\s*(?:[-–—:]\s*)?(.*)$`),
		pct:  2, nm: 1, desc: 3,
	},
	{
		// 85% - Parvovirus - rationale
		name: "dash",
		re:   regexp.MustCompile(`^(?:[-*•]\s+)?(?:\d+[.)]\s+)?(?:\*\*)?~?(\d{1,3})(?:\.\d+)?\s*%(?:\*\*)?\s*[-–—:]\s*(.+?)(?:\s+[-–—]\s+(.*))?$`),
		pct:  1, nm: 2, desc: 3,
	},
}

var emphasis = strings.NewReplacer("**", "", "__", "", "*", "", "`", "")

// ExtractDifferentials parses the differentials bucket with DefaultTuning.
func ExtractDifferentials(text string) []DifferentialRecord {
	return extractDifferentials(text, DefaultTuning())
}

func extractDifferentials(text string, t Tuning) []DifferentialRecord {
	records := []DifferentialRecord{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if rec, ok := parseDifferentialLine(line); ok {
			records = append(records, rec)
		}
	}
	return normalizePercentages(records, t.withDefaults())
}

func parseDifferentialLine(line string) (DifferentialRecord, bool) {
	for _, g := range lineGrammars {
		m := g.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		pct, err := strconv.Atoi(m[g.pct])
		if err != nil {
			continue
		}
		name := cleanName(m[g.nm])
		if name == "" {
			continue
		}
		return DifferentialRecord{
			Percentage:  min(pct, 100),
			Name:        name,
			Description: strings.TrimSpace(m[g.desc]),
		}, true
	}
	return DifferentialRecord{}, false
}

func cleanName(s string) string {
	return strings.Trim(strings.TrimSpace(emphasis.Replace(s)), " _:-–—")
}

// normalizePercentages sorts descending and repairs compressed or missing
// likelihoods. Ties keep their input order.
func normalizePercentages(records []DifferentialRecord, t Tuning) []DifferentialRecord {
	if len(records) == 0 {
		return records
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Percentage > records[j].Percentage
	})

	maxPct := records[0].Percentage
	switch {
	case maxPct == 0:
		for i := range records {
			records[i].Percentage = max(t.RankFloor, t.RankStart-i*t.RankStep)
		}
	case maxPct < t.CompressedBelow:
		scale := t.TargetCeiling / float64(maxPct)
		for i := range records {
			decay := 1 - float64(i)*t.DecayPerRank
			v := int(math.Round(float64(records[i].Percentage) * scale * decay))
			records[i].Percentage = clamp(v, t.Floor, t.Ceiling)
		}
	}
	return records
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
