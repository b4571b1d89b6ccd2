package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docmatch/internal/api"
)

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "evaluate [id...]",
		Short: "Run matching over the given sets, or every open set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *services) error {
				view, err := svc.actions.Evaluate(cmd.Context(), trimIDs(args))
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				printEvaluation(cmd.OutOrStdout(), view)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printEvaluation(out io.Writer, view api.EvaluationView) {
	fmt.Fprintf(out, "Evaluated %d of %d set(s): %d changed, %d failed, %d error(s)\n",
		view.Evaluated, view.Requested, view.Changed, view.Failed, view.Errors)
	if len(view.Missing) > 0 {
		fmt.Fprintf(out, "Not found: %s\n", strings.Join(view.Missing, ", "))
	}
	rows := make([][]string, 0, len(view.Outcomes))
	for _, outcome := range view.Outcomes {
		if !outcome.Changed && outcome.Error == "" {
			continue
		}
		rows = append(rows, []string{
			outcome.SetID,
			outcome.From,
			outcome.To,
			formatIssues(outcome.Issues),
			outcome.Error,
		})
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprint(out, renderTable([]string{"Set", "From", "To", "Issues", "Error"}, rows, nil))
}
