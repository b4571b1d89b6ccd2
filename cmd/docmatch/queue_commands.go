package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"docmatch/internal/api"
	"docmatch/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the review queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

type queueListOptions struct {
	status   string
	filters  []string
	search   string
	sort     []string
	desc     bool
	asc      bool
	page     int
	pageSize int
	json     bool
}

func (o queueListOptions) values() (url.Values, error) {
	if o.desc && o.asc {
		return nil, errors.New("specify only one of --desc or --asc")
	}
	values := url.Values{}
	if o.status != "" {
		values.Set("status", o.status)
	}
	for _, filter := range o.filters {
		values.Add("filter", filter)
	}
	if o.search != "" {
		values.Set("search", o.search)
	}
	for _, key := range o.sort {
		values.Add("sort", key)
	}
	switch {
	case o.desc:
		values.Set("dir", string(queue.Descending))
	case o.asc:
		values.Set("dir", string(queue.Ascending))
	}
	if o.page != 0 {
		values.Set("page", strconv.Itoa(o.page))
	}
	if o.pageSize != 0 {
		values.Set("page_size", strconv.Itoa(o.pageSize))
	}
	return values, nil
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var opts queueListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List document sets in review order",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := opts.values()
			if err != nil {
				return err
			}
			return ctx.withServices(func(svc *services) error {
				page, err := svc.queue.QueryValues(cmd.Context(), values)
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd, page)
				}
				out := cmd.OutOrStdout()
				if page.TotalCount == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				printQueuePage(out, page, shouldColorize(out))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.status, "status", "s", "", "Status filter: all, incomplete, ready_for_review, verified, rejected")
	cmd.Flags().StringSliceVarP(&opts.filters, "filter", "f", nil, "Smart filter: urgent, high_value, has_issues, missing_docs (repeatable)")
	cmd.Flags().StringVarP(&opts.search, "search", "q", "", "Match vendor, PO number, or set ID")
	cmd.Flags().StringArrayVar(&opts.sort, "sort", nil, "Sort key: priority, amount, age, vendor, issues (repeat a key to flip its direction)")
	cmd.Flags().BoolVar(&opts.desc, "desc", false, "Sort descending")
	cmd.Flags().BoolVar(&opts.asc, "asc", false, "Sort ascending")
	cmd.Flags().IntVar(&opts.page, "page", 0, "Page number (1-based)")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Sets per page (defaults to queue.page_size)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	return cmd
}

func printQueuePage(out io.Writer, page api.QueuePage, colors bool) {
	rows := make([][]string, 0, len(page.Items))
	for _, item := range page.Items {
		rows = append(rows, []string{
			strconv.Itoa(item.Rank),
			item.ID,
			item.Vendor,
			item.PONumber,
			formatAmount(item.TotalAmount),
			colorize(colors, statusColors, item.Status, item.StatusLabel),
			formatIssues(item.Issues),
			formatDocuments(item.DocumentsPresent),
			strconv.Itoa(item.DaysInQueue),
			colorize(colors, priorityColors, item.PriorityLabel, item.PriorityLabel),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "ID", "Vendor", "PO", "Amount", "Status", "Issues", "Docs", "Days", "Priority"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Page %d of %d (%d sets, sorted by %s %s)\n",
		page.Page, max(page.TotalPages, 1), page.TotalCount, page.Sort, page.Direction)
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show set counts by status and database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *services) error {
				summary, err := svc.store.Health(cmd.Context())
				if err != nil {
					return err
				}
				db, dbErr := svc.store.CheckHealth(cmd.Context())
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"queue": summary, "database": db})
				}

				out := cmd.OutOrStdout()
				rows := [][]string{
					{queue.StatusIncomplete.Label(), strconv.Itoa(summary.Incomplete)},
					{queue.StatusReadyForReview.Label(), strconv.Itoa(summary.ReadyForReview)},
					{queue.StatusVerified.Label(), strconv.Itoa(summary.Verified)},
					{queue.StatusRejected.Label(), strconv.Itoa(summary.Rejected)},
					{queue.StatusProcessingFailed.Label(), strconv.Itoa(summary.Failed)},
					{"Total", strconv.Itoa(summary.Total)},
				}
				fmt.Fprint(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				fmt.Fprintf(out, "Database: %s\n", db.DBPath)
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(db.IntegrityCheck))
				if len(db.MissingTables) > 0 {
					fmt.Fprintf(out, "Missing tables: %s\n", strings.Join(db.MissingTables, ", "))
				}
				return dbErr
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every document set with its documents and audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *services) error {
				removed, err := svc.actions.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d document sets\n", removed)
				return nil
			})
		},
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func formatIssues(issues api.IssueCountsView) string {
	if issues.Total == 0 {
		return "-"
	}
	return fmt.Sprintf("%d (%d major)", issues.Total, issues.Major)
}

func formatDocuments(present api.DocumentsPresent) string {
	slot := func(ok bool, label string) string {
		if ok {
			return label
		}
		return "--"
	}
	return strings.Join([]string{
		slot(present.Invoice, "INV"),
		slot(present.PurchaseOrder, "PO"),
		slot(present.GoodsReceipt, "GRN"),
	}, " ")
}
