package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docmatch/internal/api"
	"docmatch/internal/queue"
)

func newSetCommand(ctx *commandContext) *cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Inspect and review individual document sets",
	}

	setCmd.AddCommand(newSetShowCommand(ctx))
	setCmd.AddCommand(newSetActivityCommand(ctx))
	setCmd.AddCommand(newSetActionCommand(ctx, queue.ActionApprove, "Approve sets that are ready for review"))
	setCmd.AddCommand(newSetActionCommand(ctx, queue.ActionReject, "Reject sets that are ready for review"))
	setCmd.AddCommand(newSetActionCommand(ctx, queue.ActionRetry, "Re-run matching on sets whose evaluation failed"))
	setCmd.AddCommand(newSetActionCommand(ctx, queue.ActionReopen, "Return rejected sets to the queue"))
	setCmd.AddCommand(newSetAssignCommand(ctx))
	setCmd.AddCommand(newSetRemoveCommand(ctx))

	return setCmd
}

func newSetShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a document set with its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withServices(func(svc *services) error {
				view, err := svc.queue.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if view == nil {
					return fmt.Errorf("document set %s not found", id)
				}
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				printSetDetail(out, *view, shouldColorize(out))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printSetDetail(out io.Writer, view api.DocumentSetView, colors bool) {
	fmt.Fprintf(out, "Set %s\n", view.ID)
	fmt.Fprintf(out, "  Vendor:       %s\n", view.Vendor)
	fmt.Fprintf(out, "  PO number:    %s\n", view.PONumber)
	fmt.Fprintf(out, "  Amount:       %s\n", formatAmount(view.TotalAmount))
	fmt.Fprintf(out, "  Status:       %s\n", colorize(colors, statusColors, view.Status, view.StatusLabel))
	if view.Verification != "" {
		fmt.Fprintf(out, "  Verification: %s\n", view.Verification)
	}
	fmt.Fprintf(out, "  Issues:       %d major, %d minor\n", view.Issues.Major, view.Issues.Minor)
	fmt.Fprintf(out, "  Priority:     %s (flag %s, %d days in queue)\n", view.PriorityLabel, view.PriorityFlag, view.DaysInQueue)
	if view.AssignedTo != "" {
		fmt.Fprintf(out, "  Assigned to:  %s\n", view.AssignedTo)
	}
	if view.ReviewNote != "" {
		fmt.Fprintf(out, "  Review note:  %s\n", view.ReviewNote)
	}
	if view.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:        %s\n", view.ErrorMessage)
	}

	for _, doc := range view.Documents {
		fmt.Fprintf(out, "\n%s %s (total %s, approved for match: %s)\n",
			doc.Kind, doc.DocumentNumber, formatAmount(doc.TotalAmount), yesNo(doc.ApprovedForMatch))
		rows := make([][]string, 0, len(doc.LineItems))
		for _, item := range doc.LineItems {
			rows = append(rows, []string{
				item.SKU,
				item.Description,
				formatQuantity(item.Quantity, item.UnitOfMeasure),
				formatAmount(item.UnitPrice),
				formatAmount(item.TotalPrice),
			})
		}
		if len(rows) == 0 {
			fmt.Fprintln(out, "  (no line items)")
			continue
		}
		fmt.Fprint(out, renderTable(
			[]string{"SKU", "Description", "Qty", "Unit price", "Total"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
		))
	}
}

func formatQuantity(quantity float64, unit string) string {
	value := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", quantity), "0"), ".")
	if unit == "" {
		return value
	}
	return value + " " + unit
}

func newSetActivityCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "activity <id>",
		Short: "Show the audit trail of a document set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *services) error {
				trail, err := svc.actions.Activity(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"items": trail})
				}
				out := cmd.OutOrStdout()
				if len(trail) == 0 {
					fmt.Fprintln(out, "No activity recorded")
					return nil
				}
				rows := make([][]string, 0, len(trail))
				for _, entry := range trail {
					rows = append(rows, []string{entry.At, entry.Action, entry.From, entry.To, entry.Actor, entry.Note})
				}
				fmt.Fprint(out, renderTable([]string{"At", "Action", "From", "To", "Actor", "Note"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSetActionCommand(ctx *commandContext, action queue.Action, short string) *cobra.Command {
	var req api.ActionRequest
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   string(action) + " <id> [id...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetAction(cmd, ctx, action, args, req, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&req.Actor, "actor", "", "Reviewer recorded in the audit trail")
	cmd.Flags().StringVar(&req.Note, "note", "", "Review note stored with the action")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSetAssignCommand(ctx *commandContext) *cobra.Command {
	var req api.ActionRequest
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "assign <id> [id...] --to <reviewer>",
		Short: "Assign sets to a reviewer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(req.Actor) == "" {
				return errors.New("--to is required")
			}
			return runSetAction(cmd, ctx, queue.ActionAssign, args, req, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&req.Actor, "to", "", "Reviewer to assign")
	cmd.Flags().StringVar(&req.Note, "note", "", "Note stored with the assignment")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSetRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id> [id...]",
		Short: "Delete sets with their documents and audit trail",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *services) error {
				out := cmd.OutOrStdout()
				removed := 0
				for _, id := range trimIDs(args) {
					err := svc.actions.Remove(cmd.Context(), id)
					switch {
					case err == nil:
						removed++
						fmt.Fprintf(out, "Set %s removed\n", id)
					case errors.Is(err, queue.ErrNotFound):
						fmt.Fprintf(out, "Set %s not found\n", id)
					default:
						return err
					}
				}
				if removed == 0 {
					return errors.New("no document sets were removed")
				}
				return nil
			})
		},
	}
}

func runSetAction(cmd *cobra.Command, ctx *commandContext, action queue.Action, ids []string, req api.ActionRequest, jsonOutput bool) error {
	return ctx.withServices(func(svc *services) error {
		result, err := api.ApplyByID(cmd.Context(), svc.actions, action, trimIDs(ids), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd, result)
		}
		printSetActionsResult(cmd.OutOrStdout(), action, result)
		if result.AppliedCount == 0 {
			return fmt.Errorf("no document sets were updated by %s", action)
		}
		return nil
	})
}

func printSetActionsResult(out io.Writer, action queue.Action, result api.SetActionsResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case api.ActionOutcomeApplied:
			fmt.Fprintf(out, "Set %s: %s applied (now %s)\n", item.ID, action, item.NewStatus)
		case api.ActionOutcomeNotFound:
			fmt.Fprintf(out, "Set %s not found\n", item.ID)
		case api.ActionOutcomeRefused:
			fmt.Fprintf(out, "Set %s: %s refused (%s)\n", item.ID, action, item.Reason)
		}
	}
}

func trimIDs(args []string) []string {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		if id := strings.TrimSpace(arg); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
