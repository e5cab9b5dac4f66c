package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/Skufu/vetddx/internal/analysis"
	"github.com/Skufu/vetddx/internal/safety"
)

type analysisReport struct {
	analysis.Result
	Safety *safety.Report `json:"safety,omitempty"`
}

type replyReport struct {
	Model     string          `json:"model"`
	ModelName string          `json:"modelName"`
	Error     string          `json:"error,omitempty"`
	Text      string          `json:"text"`
	Analysis  *analysisReport `json:"analysis,omitempty"`
}

func checkFormat(format string) error {
	switch format {
	case "human", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want human, json or yaml)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeYAML goes through JSON first so keys match the HTTP API.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func display(w io.Writer, format string, v any, human func()) error {
	switch format {
	case "json":
		return writeJSON(w, v)
	case "yaml":
		return writeYAML(w, v)
	default:
		human()
		return nil
	}
}

func displayAnalysis(w io.Writer, r analysisReport) {
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	green := color.New(color.FgGreen, color.Bold)

	if r.Buckets.Empty() {
		fmt.Fprintln(w, "   (empty reply)")
		return
	}

	if r.Buckets.Differentials != "" {
		cyan.Fprintln(w, "RANKED DIFFERENTIALS")
		if len(r.Differentials) == 0 {
			fmt.Fprintln(w, indent(r.Buckets.Differentials, "   "))
		}
		for i, d := range r.Differentials {
			fmt.Fprintf(w, "   %d. %s %s\n", i+1, d.Name, color.YellowString("%d%%", d.Percentage))
			if d.Description != "" {
				fmt.Fprintf(w, "      %s\n", d.Description)
			}
		}
		fmt.Fprintln(w)
	}
	if r.Buckets.Diagnostics != "" {
		cyan.Fprintln(w, "DIAGNOSTIC STEPS")
		fmt.Fprintln(w, indent(r.Buckets.Diagnostics, "   "))
		fmt.Fprintln(w)
	}
	if r.Buckets.RedFlags != "" {
		red.Fprintln(w, "RED FLAGS")
		fmt.Fprintln(w, indent(r.Buckets.RedFlags, "   "))
		fmt.Fprintln(w)
	}
	if r.Buckets.Treatment != "" {
		green.Fprintln(w, "TREATMENT")
		if r.TreatmentUnstructured {
			fmt.Fprintln(w, indent(r.Buckets.Treatment, "   "))
		}
		for _, c := range r.TreatmentCategories {
			fmt.Fprintf(w, "   [%s]\n", c.Title)
			fmt.Fprintln(w, indent(c.Body, "      "))
		}
		fmt.Fprintln(w)
	}
	if r.Buckets.Other != "" {
		yellow.Fprintln(w, "UNCLASSIFIED")
		fmt.Fprintln(w, indent(r.Buckets.Other, "   "))
		fmt.Fprintln(w)
	}

	if r.Safety != nil {
		severityColor(r.Safety.RiskLevel).Fprintf(w, "SAFETY: %s (score %d)\n", r.Safety.RiskLevel, r.Safety.RiskScore)
		for _, issue := range r.Safety.Issues {
			fmt.Fprintf(w, "   - %s\n", issue)
		}
		fmt.Fprintln(w)
	}
}

func severityColor(level string) *color.Color {
	switch level {
	case safety.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case safety.SeverityMedium:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		lines[i] = prefix + strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}
