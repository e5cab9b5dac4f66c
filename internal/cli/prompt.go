package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skufu/vetddx/internal/prompt"
)

func newPromptCmd() *cobra.Command {
	var casePath string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt built for a case",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCase(casePath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt.Build(c))
			return err
		},
	}

	cmd.Flags().StringVar(&casePath, "case", "", "Case JSON file")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}
