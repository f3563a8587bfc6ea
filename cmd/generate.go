// cmd/generate.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkoval87/gherkinforge/api/schemas"
	"github.com/dkoval87/gherkinforge/internal/observability"
	"github.com/dkoval87/gherkinforge/internal/service"
)

var generateCmd = &cobra.Command{
	Use:   "generate <url>",
	Short: "Explore a page autonomously and generate Gherkin scenarios for it.",
	Long: `Generate fetches the page, asks the model which elements likely hide hover
content or open dialogs, executes the proposed interactions in a browser, and
writes a feature file describing what was observed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := service.Build(cfg, observability.GetLogger())
		if err != nil {
			return err
		}
		defer components.Shutdown()
		svc := service.New(components, observability.GetLogger())

		resp, err := svc.GenerateAuto(cmd.Context(), schemas.AutoGenerateRequest{URL: args[0]})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.GherkinContent)
		fmt.Fprintf(cmd.ErrOrStderr(), "Feature file: %s\n", resp.OutputFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
