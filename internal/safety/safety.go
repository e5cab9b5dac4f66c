// Package safety screens a normalized reply for drug choices and doses that
// conflict with the patient's signalment or with diagnoses already ruled out.
package safety

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Skufu/vetddx/internal/analysis"
	"github.com/Skufu/vetddx/internal/model"
)

const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

type Rule struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"` // contra|dosing|monitoring
	Severity string    `json:"severity"`
	Subject  string    `json:"subject"`
	Match    RuleMatch `json:"match"`
	Note     string    `json:"note"`
}

type RuleMatch struct {
	Drugs     []string `json:"drugs"`
	Species   string   `json:"species,omitempty"`   // "cat"
	Condition string   `json:"condition,omitempty"` // febrile|young
	// MinDose is in mg/kg. Zero matches any mention of the drug.
	MinDose   float64 `json:"minDose,omitempty"`
	Inclusive bool    `json:"inclusive,omitempty"`
}

type Finding struct {
	RuleID   string `json:"ruleId"`
	Category string `json:"category"`
	Subject  string `json:"subject"`
	Severity string `json:"severity"`
	Note     string `json:"note"`
}

type Report struct {
	RiskScore int       `json:"riskScore"`
	RiskLevel string    `json:"riskLevel"`
	Issues    []string  `json:"issues"`
	Findings  []Finding `json:"findings"`
}

var (
	ruleDB = []Rule{
		{ID: "paracetamol-cat", Type: "contra", Severity: SeverityHigh, Subject: "Paracetamol in cats",
			Match: RuleMatch{Drugs: []string{"paracetamol", "acetaminophen"}, Species: "cat"},
			Note:  "Fatal in cats; never administer."},
		{ID: "ondansetron-dose", Type: "dosing", Severity: SeverityHigh, Subject: "Ondansetron",
			Match: RuleMatch{Drugs: []string{"ondansetron"}, MinDose: 0.5, Inclusive: true},
			Note:  "Dose of 0.5 mg/kg or more; expected range is 0.1-0.2 mg/kg."},
		{ID: "meloxicam-cat", Type: "contra", Severity: SeverityMedium, Subject: "Meloxicam in cats",
			Match: RuleMatch{Drugs: []string{"meloxicam"}, Species: "cat"},
			Note:  "Use the lower feline dose and limit to 3 days."},
		{ID: "dexamethasone-cat", Type: "dosing", Severity: SeverityMedium, Subject: "Dexamethasone in cats",
			Match: RuleMatch{Drugs: []string{"dexamethasone"}, Species: "cat", MinDose: 0.1},
			Note:  "Dose above 0.1 mg/kg; start cats at 0.05-0.1 mg/kg."},
		{ID: "calcium-febrile", Type: "contra", Severity: SeverityMedium, Subject: "Calcium in a febrile patient",
			Match: RuleMatch{Drugs: []string{"calcium"}, Condition: "febrile"},
			Note:  "Calcium raises body temperature; avoid unless treating eclampsia."},
		{ID: "ciprofloxacin-young", Type: "contra", Severity: SeverityMedium, Subject: "Ciprofloxacin in a growing animal",
			Match: RuleMatch{Drugs: []string{"ciprofloxacin"}, Condition: "young"},
			Note:  "Fluoroquinolones can damage developing cartilage."},
		{ID: "azithromycin-liver", Type: "monitoring", Severity: SeverityLow, Subject: "Azithromycin",
			Match: RuleMatch{Drugs: []string{"azithromycin"}},
			Note:  "Check liver function before starting."},
		{ID: "metronidazole-duration", Type: "monitoring", Severity: SeverityLow, Subject: "Metronidazole",
			Match: RuleMatch{Drugs: []string{"metronidazole"}},
			Note:  "Limit the course to one week; watch for neurotoxicity."},
	}
	severityWeight = map[string]int{
		SeverityHigh:   40,
		SeverityMedium: 20,
		SeverityLow:    10,
	}
	categoryByType = map[string]string{
		"contra":     "Contraindication",
		"dosing":     "Dosing",
		"monitoring": "Monitoring",
	}

	doseRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)(?:\s*[-–]\s*(\d+(?:\.\d+)?))?\s*mg/kg`)
	ageRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(weeks?|wks?|months?|mos?|years?|yrs?|y)\b`)

	clauseRe  = regexp.MustCompile(`[\n;!]+|\.(?:\s+|$)`)
	warningRe = regexp.MustCompile(`\b(?:do not|don't|never|avoid|contraindicated|must not|should not|not recommended|toxic)\b`)
)

// Rules returns a copy of the built-in rule table.
func Rules() []Rule {
	return append([]Rule(nil), ruleDB...)
}

// Screen checks one analyzed reply against the case it was produced for.
func Screen(c model.Case, r analysis.Result) Report {
	treatment := strings.ToLower(strings.TrimSpace(r.Buckets.Treatment + "\n" + r.Buckets.Other))
	cat := c.IsCat()
	febrile := isFebrile(c)
	young := isYoung(c)

	findings := []Finding{}
	for _, rule := range ruleDB {
		uses := prescriptions(treatment, rule.Match.Drugs)
		if len(uses) == 0 {
			continue
		}
		if rule.Match.Species == "cat" && !cat {
			continue
		}
		switch rule.Match.Condition {
		case "febrile":
			if !febrile {
				continue
			}
		case "young":
			if !young {
				continue
			}
		}
		if rule.Match.MinDose > 0 {
			dose, ok := maxDose(uses)
			if !ok {
				continue
			}
			if rule.Match.Inclusive && dose < rule.Match.MinDose {
				continue
			}
			if !rule.Match.Inclusive && dose <= rule.Match.MinDose {
				continue
			}
		}
		findings = append(findings, Finding{
			RuleID:   rule.ID,
			Category: categoryByType[rule.Type],
			Subject:  rule.Subject,
			Severity: rule.Severity,
			Note:     rule.Note,
		})
	}

	for _, ex := range reappearingExclusions(c, r) {
		findings = append(findings, Finding{
			RuleID:   "excluded-diagnosis",
			Category: "Excluded diagnosis",
			Subject:  ex,
			Severity: SeverityHigh,
			Note:     "Listed as ruled out but still ranked as a differential.",
		})
	}

	return summarize(findings)
}

func summarize(findings []Finding) Report {
	maxSeverity := ""
	score := 5
	for _, f := range findings {
		score += severityWeight[f.Severity]
		if severityWeight[f.Severity] > severityWeight[maxSeverity] {
			maxSeverity = f.Severity
		}
	}
	if score > 100 {
		score = 100
	}

	riskLevel := SeverityLow
	if maxSeverity == SeverityHigh || score >= 60 {
		riskLevel = SeverityHigh
	} else if maxSeverity == SeverityMedium || score >= 30 {
		riskLevel = SeverityMedium
	}

	issues := []string{}
	for _, f := range findings {
		issues = append(issues, fmt.Sprintf("[%s] %s: %s - %s", f.Severity, f.Category, f.Subject, f.Note))
	}
	if len(issues) == 0 {
		issues = append(issues, "None")
	}

	return Report{RiskScore: score, RiskLevel: riskLevel, Issues: issues, Findings: findings}
}

// prescriptions returns, for every clause that names one of drugs, the text
// after the drug name. Warning clauses ("never use paracetamol in cats") are
// skipped: a warning word before the drug always counts, one after it only
// when the clause carries no mg/kg dose.
func prescriptions(text string, drugs []string) []string {
	out := []string{}
	for _, clause := range clauseRe.Split(text, -1) {
		for _, d := range drugs {
			idx := strings.Index(clause, d)
			if idx < 0 {
				continue
			}
			tail := clause[idx+len(d):]
			if warningRe.MatchString(clause[:idx]) {
				continue
			}
			if warningRe.MatchString(tail) && !doseRe.MatchString(tail) {
				continue
			}
			out = append(out, tail)
			break
		}
	}
	return out
}

// maxDose returns the highest mg/kg figure across uses. Ranges count by their
// upper bound.
func maxDose(uses []string) (float64, bool) {
	best, found := 0.0, false
	for _, use := range uses {
		m := doseRe.FindStringSubmatch(use)
		if m == nil {
			continue
		}
		v := m[1]
		if m[2] != "" {
			v = m[2]
		}
		dose, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		if !found || dose > best {
			best, found = dose, true
		}
	}
	return best, found
}

func isFebrile(c model.Case) bool {
	for _, p := range c.Problems {
		p = strings.ToLower(p)
		if strings.Contains(p, "fever") || strings.Contains(p, "febrile") || strings.Contains(p, "pyrexia") || strings.Contains(p, "hyperthermia") {
			return true
		}
	}
	return false
}

// isYoung reports whether the patient is under a year old. Unparseable ages
// count as adult unless they name a puppy or kitten.
func isYoung(c model.Case) bool {
	age := strings.ToLower(c.Age)
	if strings.Contains(age, "puppy") || strings.Contains(age, "kitten") {
		return true
	}
	m := ageRe.FindStringSubmatch(age)
	if m == nil {
		return false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return false
	}
	switch unit := m[2]; {
	case strings.HasPrefix(unit, "w"):
		return n < 52
	case strings.HasPrefix(unit, "m"):
		return n < 12
	default:
		return n < 1
	}
}

func reappearingExclusions(c model.Case, r analysis.Result) []string {
	out := []string{}
	for _, ex := range c.Normalized().Excluded {
		needle := strings.ToLower(ex)
		for _, d := range r.Differentials {
			if strings.Contains(strings.ToLower(d.Name), needle) {
				out = append(out, ex)
				break
			}
		}
	}
	return out
}
