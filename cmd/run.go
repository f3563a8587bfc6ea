// cmd/run.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkoval87/gherkinforge/api/schemas"
	"github.com/dkoval87/gherkinforge/internal/observability"
	"github.com/dkoval87/gherkinforge/internal/service"
)

var (
	runSteps     string
	runStepsFile string
	runGherkin   bool
)

var runCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Execute a plain-text test script against a live page.",
	Long: `Run parses a step script (one instruction per line, numbered or not),
drives a browser through it, and prints the execution record as JSON.
With --gherkin the executed script is also converted into a feature file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := loadSteps()
		if err != nil {
			return err
		}

		components, err := service.Build(cfg, observability.GetLogger())
		if err != nil {
			return err
		}
		defer components.Shutdown()
		svc := service.New(components, observability.GetLogger())

		ctx := cmd.Context()
		url := args[0]

		if runGherkin {
			resp, err := svc.GenerateCustom(ctx, schemas.CustomTestRequest{
				URL: url, TestSteps: steps, Execute: true,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.GherkinContent)
			fmt.Fprintf(cmd.ErrOrStderr(), "Feature file: %s\n", resp.OutputFile)
			return nil
		}

		result := svc.ExecuteScript(ctx, url, steps)
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		if !result.Succeeded() {
			return fmt.Errorf("run finished with failures")
		}
		return nil
	},
}

func loadSteps() (string, error) {
	switch {
	case runSteps != "" && runStepsFile != "":
		return "", fmt.Errorf("--steps and --steps-file are mutually exclusive")
	case runSteps != "":
		return runSteps, nil
	case runStepsFile != "":
		data, err := os.ReadFile(runStepsFile)
		if err != nil {
			return "", fmt.Errorf("failed to read steps file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("provide the script via --steps or --steps-file")
	}
}

func init() {
	runCmd.Flags().StringVar(&runSteps, "steps", "", "test script text, one instruction per line")
	runCmd.Flags().StringVar(&runStepsFile, "steps-file", "", "path to a test script file")
	runCmd.Flags().BoolVar(&runGherkin, "gherkin", false, "also convert the executed script into a feature file")
	rootCmd.AddCommand(runCmd)
}
