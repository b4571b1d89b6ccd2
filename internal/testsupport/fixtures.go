package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"docmatch/internal/queue"
)

// Item builds a line item whose total is quantity times unit price.
func Item(sku, description string, quantity, unitPrice float64) queue.LineItem {
	return queue.LineItem{
		SKU:           sku,
		Description:   description,
		Quantity:      quantity,
		UnitOfMeasure: "EA",
		UnitPrice:     unitPrice,
		TotalPrice:    quantity * unitPrice,
	}
}

// Doc builds a document approved for matching whose total is the sum of its
// line totals.
func Doc(kind queue.DocumentKind, number string, items ...queue.LineItem) *queue.Document {
	var total float64
	for _, item := range items {
		total += item.TotalPrice
	}
	return &queue.Document{
		ID:               number,
		Kind:             kind,
		DocumentNumber:   number,
		Vendor:           "Acme Supplies",
		TotalAmount:      total,
		LineItems:        append([]queue.LineItem(nil), items...),
		ApprovedForMatch: true,
	}
}

// SetOption customizes a fixture set.
type SetOption func(*queue.DocumentSet)

// NewSet builds a document set with the given documents placed in their
// slots.
func NewSet(id string, docs []*queue.Document, opts ...SetOption) queue.DocumentSet {
	set := queue.DocumentSet{
		ID:           id,
		Vendor:       "Acme Supplies",
		PONumber:     "PO-" + id,
		Status:       queue.StatusIncomplete,
		PriorityFlag: queue.PriorityLow,
	}
	for _, doc := range docs {
		set.SetSlot(doc)
		set.TotalAmount = max(set.TotalAmount, doc.TotalAmount)
	}
	for _, opt := range opts {
		opt(&set)
	}
	return set
}

// MatchedSet returns a complete set whose three documents agree exactly.
func MatchedSet(id string, opts ...SetOption) queue.DocumentSet {
	items := []queue.LineItem{
		Item("CHR-100", "Ergonomic office chair", 10, 150),
		Item("DSK-200", "Standing desk frame", 4, 420),
	}
	return NewSet(id, []*queue.Document{
		Doc(queue.KindInvoice, "INV-"+id, items...),
		Doc(queue.KindPurchaseOrder, "PO-"+id, items...),
		Doc(queue.KindGoodsReceiptNote, "GRN-"+id, items...),
	}, opts...)
}

// WithVendor sets the vendor.
func WithVendor(vendor string) SetOption {
	return func(s *queue.DocumentSet) { s.Vendor = vendor }
}

// WithStatus sets the lifecycle status.
func WithStatus(status queue.Status) SetOption {
	return func(s *queue.DocumentSet) { s.Status = status }
}

// WithDays sets the stored queue age and clears QueuedAt.
func WithDays(days int) SetOption {
	return func(s *queue.DocumentSet) {
		s.DaysInQueue = days
		s.QueuedAt = time.Time{}
	}
}

// WithPriority sets the external priority flag.
func WithPriority(flag queue.Priority) SetOption {
	return func(s *queue.DocumentSet) { s.PriorityFlag = flag }
}

// WithAmount sets the set total.
func WithAmount(amount float64) SetOption {
	return func(s *queue.DocumentSet) { s.TotalAmount = amount }
}

// WithIssues sets the issue counts.
func WithIssues(major, minor int) SetOption {
	return func(s *queue.DocumentSet) { s.Issues = queue.IssueCounts{Major: major, Minor: minor} }
}

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t testing.TB, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
