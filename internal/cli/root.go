// Package cli implements the vetddx operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Skufu/vetddx/internal/export"
	"github.com/Skufu/vetddx/internal/model"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vetddx",
		Short: "Veterinary differential diagnosis assistant",
		Long: `vetddx builds diagnosis prompts from a patient case, sends them to the
configured language models and structures the replies into ranked
differentials, diagnostic steps, red flags and treatment categories.`,
		SilenceUsage: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newPromptCmd(),
		newGenerateCmd(),
		newVersionCmd(version),
	)
	return rootCmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vetddx version %s\n", version)
		},
	}
}

// readInput returns the text of path, or stdin when path is empty or "-".
// PDF files are converted to plain text.
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		return export.ReadText(f, info.Size())
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

func loadCase(path string) (model.Case, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Case{}, fmt.Errorf("read case: %w", err)
	}
	var c model.Case
	if err := json.Unmarshal(b, &c); err != nil {
		return model.Case{}, fmt.Errorf("decode case %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return model.Case{}, err
	}
	return c.Normalized(), nil
}
