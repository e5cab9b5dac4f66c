package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Skufu/vetddx/internal/analysis"
	"github.com/Skufu/vetddx/internal/config"
	"github.com/Skufu/vetddx/internal/safety"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		outputFormat string
		casePath     string
	)

	cmd := &cobra.Command{
		Use:   "analyze [FILE]",
		Short: "Structure a saved model reply",
		Long: `Split a model reply into differentials, diagnostic steps, red flags and
treatment categories. Reads stdin when FILE is omitted; PDF files are
converted to text first.

Examples:
  # Analyze a saved reply
  vetddx analyze reply.md

  # Include a safety screen against the case it was produced for
  vetddx analyze reply.md --case case.json -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(outputFormat); err != nil {
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			text, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("no text to analyze")
			}

			report := analysisReport{Result: newNormalizer().Analyze(text)}
			if casePath != "" {
				c, err := loadCase(casePath)
				if err != nil {
					return err
				}
				s := safety.Screen(c, report.Result)
				report.Safety = &s
			}

			w := cmd.OutOrStdout()
			return display(w, outputFormat, report, func() { displayAnalysis(w, report) })
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "human", "Output format (human, json, yaml)")
	cmd.Flags().StringVar(&casePath, "case", "", "Case JSON file used for the safety screen")
	return cmd
}

// newNormalizer picks up rescale tuning from the environment when it is valid.
func newNormalizer() *analysis.Normalizer {
	if cfg, err := config.Load(); err == nil {
		return analysis.NewNormalizer(cfg.Tuning)
	}
	return analysis.NewNormalizer(analysis.DefaultTuning())
}
