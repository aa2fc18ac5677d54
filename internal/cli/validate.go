package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/garden"
)

// validateCommand checks schemas without building them.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		inputFormat string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "validate [schema...]",
		Short: "Check garden schemas for errors and lint findings",
		Long: `Validate one or more garden schemas.

Errors (missing name or version, malformed documents) fail validation.
Lint findings such as unnamed entries or non-http(s) URLs are
reported as warnings and only fail with --strict.`,
		Example: `  gardenflow validate gardens/*.yaml
  gardenflow validate --strict omni.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, input := range args {
				g, err := c.loadGarden(cmd.Context(), input, inputFormat, cmd.InOrStdin())
				if err != nil {
					printError(c.Out, "%s: %s", input, errors.UserMessage(err))
					failed++
					continue
				}
				issues := garden.Lint(g)
				printSuccess(c.Out, "%s: %s %s (%d entities)", input, StyleHighlight.Render(g.Name), g.Version, g.EntityCount())
				printIssues(c.Out, input, issues)
				if strict && len(issues) > 0 {
					failed++
				}
			}
			if failed > 0 {
				return errors.New(errors.ErrCodeInvalidSchema, "%d of %d schemas failed validation", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "schema format: json, yaml or toml (default from extension)")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat lint findings as errors")

	return cmd
}

// schemaCommand prints the JSON Schema of the garden document.
func (c *CLI) schemaCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for garden documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := garden.JSONSchema()
			if err != nil {
				return err
			}
			if output == "" {
				_, err := c.Out.Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", output)
			}
			printSuccess(c.Out, "Wrote schema")
			printFile(c.Out, output)
			printNextStep(c.Out, "Validate a garden", "gardenflow validate <schema>")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}
