package queue

import (
	"strings"
	"time"
)

// Status represents the review lifecycle of a document set.
type Status string

const (
	StatusIncomplete       Status = "incomplete"
	StatusReadyForReview   Status = "ready_for_review"
	StatusVerified         Status = "verified"
	StatusRejected         Status = "rejected"
	StatusProcessingFailed Status = "processing_failed"
)

var allStatuses = []Status{
	StatusIncomplete,
	StatusReadyForReview,
	StatusVerified,
	StatusRejected,
	StatusProcessingFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Verification distinguishes how a verified set was approved.
type Verification string

const (
	VerificationNone             Verification = ""
	VerificationAutoApproved     Verification = "auto_approved"
	VerificationManuallyApproved Verification = "manually_approved"
)

// Priority is the externally assigned urgency flag of a set.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DocumentKind identifies one of the three procurement document types.
type DocumentKind string

const (
	KindInvoice          DocumentKind = "invoice"
	KindPurchaseOrder    DocumentKind = "purchase_order"
	KindGoodsReceiptNote DocumentKind = "goods_receipt_note"
)

// Label returns the short form used in tables and issue descriptions.
func (k DocumentKind) Label() string {
	switch k {
	case KindInvoice:
		return "Invoice"
	case KindPurchaseOrder:
		return "PO"
	case KindGoodsReceiptNote:
		return "GRN"
	default:
		return string(k)
	}
}

// ParseDocumentKind accepts canonical names and the common short forms.
func ParseDocumentKind(value string) (DocumentKind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "invoice", "inv":
		return KindInvoice, true
	case "purchase_order", "po":
		return KindPurchaseOrder, true
	case "goods_receipt_note", "grn":
		return KindGoodsReceiptNote, true
	default:
		return "", false
	}
}

// LineItem is one priced row on a document.
type LineItem struct {
	SKU           string  `json:"sku,omitempty"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	UnitOfMeasure string  `json:"unitOfMeasure,omitempty"`
	UnitPrice     float64 `json:"unitPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// Document is a single extracted Invoice, PO, or GRN.
type Document struct {
	ID               string       `json:"id"`
	Kind             DocumentKind `json:"kind"`
	DocumentNumber   string       `json:"documentNumber"`
	Vendor           string       `json:"vendor"`
	TotalAmount      float64      `json:"totalAmount"`
	LineItems        []LineItem   `json:"lineItems"`
	ApprovedForMatch bool         `json:"approvedForMatch"`
}

// DocumentsPresent records which slots of a set hold a document.
type DocumentsPresent struct {
	Invoice       bool `json:"invoice"`
	PurchaseOrder bool `json:"po"`
	GoodsReceipt  bool `json:"grn"`
}

// Complete reports whether all three documents are present.
func (p DocumentsPresent) Complete() bool {
	return p.Invoice && p.PurchaseOrder && p.GoodsReceipt
}

// IssueCounts summarizes the discrepancies of the last matching pass.
type IssueCounts struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

// Total returns major plus minor issues.
func (c IssueCounts) Total() int {
	return c.Major + c.Minor
}

// DocumentSet is the unit of work in the review queue.
type DocumentSet struct {
	ID             string
	Vendor         string
	PONumber       string
	Invoice        *Document
	PurchaseOrder  *Document
	GoodsReceipt   *Document
	TotalAmount    float64
	Status         Status
	Verification   Verification
	Issues         IssueCounts
	DaysInQueue    int
	PriorityFlag   Priority
	AssignedTo     string
	ReviewNote     string
	ErrorMessage   string
	QueuedAt       time.Time
	LastActivityAt time.Time
	// Version is the stored revision this copy was read at. Store.Update
	// refuses a copy whose version is no longer current.
	Version int
}

// DocumentsPresent derives presence strictly from the non-nil slots.
func (s DocumentSet) DocumentsPresent() DocumentsPresent {
	return DocumentsPresent{
		Invoice:       s.Invoice != nil,
		PurchaseOrder: s.PurchaseOrder != nil,
		GoodsReceipt:  s.GoodsReceipt != nil,
	}
}

// Documents returns the present documents in Invoice, PO, GRN order.
func (s DocumentSet) Documents() []*Document {
	docs := make([]*Document, 0, 3)
	for _, doc := range []*Document{s.Invoice, s.PurchaseOrder, s.GoodsReceipt} {
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Slot returns the document stored for kind, or nil.
func (s DocumentSet) Slot(kind DocumentKind) *Document {
	switch kind {
	case KindInvoice:
		return s.Invoice
	case KindPurchaseOrder:
		return s.PurchaseOrder
	case KindGoodsReceiptNote:
		return s.GoodsReceipt
	default:
		return nil
	}
}

// SetSlot stores doc in the slot matching its kind.
func (s *DocumentSet) SetSlot(doc *Document) bool {
	if doc == nil {
		return false
	}
	switch doc.Kind {
	case KindInvoice:
		s.Invoice = doc
	case KindPurchaseOrder:
		s.PurchaseOrder = doc
	case KindGoodsReceiptNote:
		s.GoodsReceipt = doc
	default:
		return false
	}
	return true
}

// ApprovedForMatch reports whether every present document passed the
// "ready for data match" gate. A set with no documents is not approved.
func (s DocumentSet) ApprovedForMatch() bool {
	docs := s.Documents()
	if len(docs) == 0 {
		return false
	}
	for _, doc := range docs {
		if !doc.ApprovedForMatch {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can mutate without touching a
// published snapshot.
func (s DocumentSet) Clone() DocumentSet {
	cp := s
	cp.Invoice = cloneDocument(s.Invoice)
	cp.PurchaseOrder = cloneDocument(s.PurchaseOrder)
	cp.GoodsReceipt = cloneDocument(s.GoodsReceipt)
	return cp
}

func cloneDocument(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	cp := *doc
	if doc.LineItems != nil {
		cp.LineItems = make([]LineItem, len(doc.LineItems))
		copy(cp.LineItems, doc.LineItems)
	}
	return &cp
}

// AgeAt returns whole days between QueuedAt and now, never negative. When
// QueuedAt is unknown the stored DaysInQueue is returned.
func (s DocumentSet) AgeAt(now time.Time) int {
	if s.QueuedAt.IsZero() {
		return max(s.DaysInQueue, 0)
	}
	days := int(now.Sub(s.QueuedAt) / (24 * time.Hour))
	return max(days, 0)
}

// IsTerminal reports whether automatic re-evaluation leaves the set alone.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusVerified, StatusRejected, StatusProcessingFailed:
		return true
	default:
		return false
	}
}

// Label returns the human-readable status name.
func (s Status) Label() string {
	switch s {
	case StatusIncomplete:
		return "Incomplete"
	case StatusReadyForReview:
		return "Ready for Review"
	case StatusVerified:
		return "Verified"
	case StatusRejected:
		return "Rejected"
	case StatusProcessingFailed:
		return "Processing Failed"
	default:
		return string(s)
	}
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	normalized = Status(strings.ReplaceAll(string(normalized), "-", "_"))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ParsePriority converts a string into a Priority, defaulting empty input to low.
func ParsePriority(value string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(value))) {
	case "", PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	default:
		return "", false
	}
}
