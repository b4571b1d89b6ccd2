package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docmatch/internal/config"
	"docmatch/internal/ingest"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var actor string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "import <bundle>",
		Short: "Import document sets from a JSON or YAML bundle and evaluate them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			sets, err := ingest.LoadBundle(path)
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *services) error {
				result, err := svc.actions.Import(cmd.Context(), sets, actor)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d document set(s): %s\n", len(result.Imported), strings.Join(result.Imported, ", "))
				if result.Evaluation != nil {
					printEvaluation(out, *result.Evaluation)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Operator recorded on the import activity")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
