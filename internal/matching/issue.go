package matching

import (
	"fmt"

	"docmatch/internal/queue"
)

// Severity classifies an issue.
type Severity string

const (
	SeverityMajor Severity = "major"
	SeverityMinor Severity = "minor"
)

// Field names the compared attribute.
type Field string

const (
	FieldDescription Field = "description"
	FieldQuantity    Field = "quantity"
	FieldUnitPrice   Field = "unit_price"
	FieldTotalAmount Field = "total_amount"
)

// Pair identifies the two documents compared. Expected is the reference side.
type Pair struct {
	Expected queue.DocumentKind `json:"expected"`
	Actual   queue.DocumentKind `json:"actual"`
}

func (p Pair) String() string {
	return p.Expected.Label() + "/" + p.Actual.Label()
}

// Pairs lists the document comparisons in evaluation order.
var Pairs = []Pair{
	{Expected: queue.KindPurchaseOrder, Actual: queue.KindInvoice},
	{Expected: queue.KindPurchaseOrder, Actual: queue.KindGoodsReceiptNote},
	{Expected: queue.KindGoodsReceiptNote, Actual: queue.KindInvoice},
}

// Issue is one discrepancy found by a matching pass. For description issues
// Expected is the threshold and Actual the similarity score.
type Issue struct {
	Severity           Severity `json:"severity"`
	Field              Field    `json:"field"`
	Pair               Pair     `json:"pair"`
	SKU                string   `json:"sku,omitempty"`
	Description        string   `json:"description,omitempty"`
	Expected           float64  `json:"expected"`
	Actual             float64  `json:"actual"`
	Delta              float64  `json:"delta"`
	MissingCounterpart bool     `json:"missing_counterpart,omitempty"`
}

func (i Issue) String() string {
	subject := i.Description
	if i.SKU != "" {
		subject = i.SKU
	}
	if i.MissingCounterpart {
		return fmt.Sprintf("%s %s: %q has no counterpart", i.Severity, i.Pair, subject)
	}
	if subject == "" {
		return fmt.Sprintf("%s %s %s: expected %g, got %g", i.Severity, i.Pair, i.Field, i.Expected, i.Actual)
	}
	return fmt.Sprintf("%s %s %s %q: expected %g, got %g", i.Severity, i.Pair, i.Field, subject, i.Expected, i.Actual)
}

// Result is the outcome of evaluating one set.
type Result struct {
	Issues   []Issue
	Complete bool
}

// Counts tallies issues by severity.
func (r Result) Counts() queue.IssueCounts {
	var counts queue.IssueCounts
	for _, issue := range r.Issues {
		if issue.Severity == SeverityMajor {
			counts.Major++
		} else {
			counts.Minor++
		}
	}
	return counts
}
