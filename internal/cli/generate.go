package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Skufu/vetddx/internal/analysis"
	"github.com/Skufu/vetddx/internal/config"
	"github.com/Skufu/vetddx/internal/gateway"
	"github.com/Skufu/vetddx/internal/logging"
	"github.com/Skufu/vetddx/internal/prompt"
	"github.com/Skufu/vetddx/internal/safety"
)

func newGenerateCmd() *cobra.Command {
	var (
		casePath     string
		selector     string
		outputFormat string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Send a case to the language models and analyze the replies",
		Long: `Build the prompt for a case, send it to Gemini, MiMo or both, and print
the structured analysis of every reply.

Examples:
  vetddx generate --case case.json
  vetddx generate --case case.json --model both -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(outputFormat); err != nil {
				return err
			}
			c, err := loadCase(casePath)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			logger := zap.NewNop()
			if verbose {
				if logger, err = logging.New("debug", "debug"); err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
			}

			gw := gateway.FromConfig(cfg, logger)
			if _, err := gw.Resolve(selector); err != nil {
				return err
			}

			s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
			s.Suffix = " Waiting for model replies..."
			s.Start()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.UpstreamTimeout)
			defer cancel()
			resp, err := gw.Generate(ctx, prompt.Build(c), selector)
			s.Stop()
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			normalizer := analysis.NewNormalizer(cfg.Tuning)
			reports := make([]replyReport, 0, len(resp.Content))
			for _, r := range resp.Content {
				rep := replyReport{Model: r.Model, ModelName: r.ModelName, Error: r.Error, Text: r.Text}
				if !r.Failed() {
					res := normalizer.Analyze(r.Text)
					sr := safety.Screen(c, res)
					rep.Analysis = &analysisReport{Result: res, Safety: &sr}
				}
				reports = append(reports, rep)
			}

			w := cmd.OutOrStdout()
			return display(w, outputFormat, reports, func() {
				header := color.New(color.FgMagenta, color.Bold)
				for _, rep := range reports {
					header.Fprintf(w, "== %s ==\n", rep.ModelName)
					if rep.Analysis == nil {
						fmt.Fprintf(w, "   %s (%s)\n\n", color.RedString(rep.Text), rep.Error)
						continue
					}
					displayAnalysis(w, *rep.Analysis)
				}
			})
		},
	}

	cmd.Flags().StringVar(&casePath, "case", "", "Case JSON file")
	cmd.Flags().StringVarP(&selector, "model", "m", gateway.ModelGemini, "Model to use (gemini, mimo, both)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "human", "Output format (human, json, yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log upstream calls")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}
