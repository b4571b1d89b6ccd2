package api

import (
	"time"

	"docmatch/internal/queue"
	"docmatch/internal/workflow"
)

// FromDocumentSet converts a set into its summary view without documents.
func FromDocumentSet(set queue.DocumentSet) DocumentSetView {
	present := set.DocumentsPresent()
	score := queue.PriorityScore(set)
	return DocumentSetView{
		ID:           set.ID,
		Vendor:       set.Vendor,
		PONumber:     set.PONumber,
		TotalAmount:  set.TotalAmount,
		Status:       string(set.Status),
		StatusLabel:  set.Status.Label(),
		Verification: string(set.Verification),
		Issues:       fromIssueCounts(set.Issues),
		DocumentsPresent: DocumentsPresent{
			Invoice:       present.Invoice,
			PurchaseOrder: present.PurchaseOrder,
			GoodsReceipt:  present.GoodsReceipt,
		},
		DaysInQueue:    set.DaysInQueue,
		PriorityFlag:   string(set.PriorityFlag),
		PriorityScore:  score,
		PriorityLabel:  queue.ScoreLabel(score),
		AssignedTo:     set.AssignedTo,
		ReviewNote:     set.ReviewNote,
		ErrorMessage:   set.ErrorMessage,
		QueuedAt:       FormatTime(set.QueuedAt),
		LastActivityAt: FormatTime(set.LastActivityAt),
	}
}

// FromDocumentSetDetail converts a set into a view that includes its documents.
func FromDocumentSetDetail(set queue.DocumentSet) DocumentSetView {
	view := FromDocumentSet(set)
	for _, doc := range set.Documents() {
		view.Documents = append(view.Documents, fromDocument(doc))
	}
	return view
}

// FromRanked converts a query result entry, carrying its rank.
func FromRanked(entry queue.Ranked) DocumentSetView {
	view := FromDocumentSet(entry.Set)
	view.Rank = entry.Rank
	view.PriorityScore = entry.Score
	view.PriorityLabel = queue.ScoreLabel(entry.Score)
	return view
}

// FromResult converts a queue page.
func FromResult(result queue.Result, sort queue.Sort) QueuePage {
	page := QueuePage{
		Items:      make([]DocumentSetView, 0, len(result.Items)),
		TotalCount: result.TotalCount,
		TotalPages: result.TotalPages,
		Page:       result.Page,
		PageSize:   result.PageSize,
		Sort:       string(sort.Key),
		Direction:  string(sort.Direction),
	}
	for _, entry := range result.Items {
		page.Items = append(page.Items, FromRanked(entry))
	}
	return page
}

// FromActivity converts an audit entry.
func FromActivity(entry queue.Activity) ActivityView {
	return ActivityView{
		ID:     entry.ID,
		SetID:  entry.SetID,
		Action: string(entry.Action),
		From:   string(entry.From),
		To:     string(entry.To),
		Actor:  entry.Actor,
		Note:   entry.Note,
		At:     FormatTime(entry.At),
	}
}

// FromActivities converts an audit trail, preserving order.
func FromActivities(entries []queue.Activity) []ActivityView {
	out := make([]ActivityView, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromActivity(entry))
	}
	return out
}

// FromBatchSummary converts a workflow evaluation batch.
func FromBatchSummary(summary workflow.BatchSummary) EvaluationView {
	view := EvaluationView{
		RequestID: summary.RequestID,
		Requested: summary.Requested,
		Evaluated: summary.Evaluated,
		Changed:   summary.Changed,
		Failed:    summary.Failed,
		Errors:    summary.Errors,
		Missing:   append([]string(nil), summary.Missing...),
		Outcomes:  make([]OutcomeView, 0, len(summary.Outcomes)),
	}
	for _, outcome := range summary.Outcomes {
		view.Outcomes = append(view.Outcomes, OutcomeView{
			SetID:   outcome.SetID,
			From:    string(outcome.From),
			To:      string(outcome.To),
			Issues:  fromIssueCounts(outcome.Issues),
			Changed: outcome.Changed,
			Error:   outcome.Error,
		})
	}
	return view
}

// FromStatusSummary converts the workflow manager status.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:    summary.Running,
		Workers:    summary.Workers,
		LastError:  summary.LastError,
		QueueStats: MergeQueueStats(summary.QueueStats),
	}
	if summary.LastBatch != nil {
		batch := FromBatchSummary(*summary.LastBatch)
		status.LastBatch = &batch
	}
	return status
}

// MergeQueueStats keys counts by status string, including zero counts for
// every known status.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = stats[status]
	}
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FormatTime renders t for API payloads; the zero time renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func fromIssueCounts(counts queue.IssueCounts) IssueCountsView {
	return IssueCountsView{Major: counts.Major, Minor: counts.Minor, Total: counts.Total()}
}

func fromDocument(doc *queue.Document) DocumentView {
	view := DocumentView{
		ID:               doc.ID,
		Kind:             string(doc.Kind),
		DocumentNumber:   doc.DocumentNumber,
		Vendor:           doc.Vendor,
		TotalAmount:      doc.TotalAmount,
		ApprovedForMatch: doc.ApprovedForMatch,
		LineItems:        make([]LineItemView, 0, len(doc.LineItems)),
	}
	for _, item := range doc.LineItems {
		view.LineItems = append(view.LineItems, LineItemView(item))
	}
	return view
}
