package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DocumentSetView describes a document set in a transport-friendly format.
type DocumentSetView struct {
	ID               string           `json:"id"`
	Rank             int              `json:"rank,omitempty"`
	Vendor           string           `json:"vendor"`
	PONumber         string           `json:"poNumber,omitempty"`
	TotalAmount      float64          `json:"totalAmount"`
	Status           string           `json:"status"`
	StatusLabel      string           `json:"statusLabel"`
	Verification     string           `json:"verification,omitempty"`
	Issues           IssueCountsView  `json:"issues"`
	DocumentsPresent DocumentsPresent `json:"documentsPresent"`
	DaysInQueue      int              `json:"daysInQueue"`
	PriorityFlag     string           `json:"priorityFlag"`
	PriorityScore    int              `json:"priorityScore"`
	PriorityLabel    string           `json:"priorityLabel"`
	AssignedTo       string           `json:"assignedTo,omitempty"`
	ReviewNote       string           `json:"reviewNote,omitempty"`
	ErrorMessage     string           `json:"errorMessage,omitempty"`
	QueuedAt         string           `json:"queuedAt,omitempty"`
	LastActivityAt   string           `json:"lastActivityAt,omitempty"`
	Documents        []DocumentView   `json:"documents,omitempty"`
}

// IssueCountsView carries the discrepancy counts of the last evaluation.
type IssueCountsView struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Total int `json:"total"`
}

// DocumentsPresent mirrors which document slots are filled.
type DocumentsPresent struct {
	Invoice       bool `json:"invoice"`
	PurchaseOrder bool `json:"purchaseOrder"`
	GoodsReceipt  bool `json:"goodsReceipt"`
}

// DocumentView is one document of a set, included in detail responses.
type DocumentView struct {
	ID               string         `json:"id"`
	Kind             string         `json:"kind"`
	DocumentNumber   string         `json:"documentNumber"`
	Vendor           string         `json:"vendor"`
	TotalAmount      float64        `json:"totalAmount"`
	ApprovedForMatch bool           `json:"approvedForMatch"`
	LineItems        []LineItemView `json:"lineItems"`
}

// LineItemView is one priced row on a document.
type LineItemView struct {
	SKU           string  `json:"sku,omitempty"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	UnitOfMeasure string  `json:"unitOfMeasure,omitempty"`
	UnitPrice     float64 `json:"unitPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// QueuePage is one page of the filtered, sorted review queue.
type QueuePage struct {
	Items      []DocumentSetView `json:"items"`
	TotalCount int               `json:"totalCount"`
	TotalPages int               `json:"totalPages"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Sort       string            `json:"sort"`
	Direction  string            `json:"direction"`
}

// ActivityView is one audit trail entry.
type ActivityView struct {
	ID     string `json:"id"`
	SetID  string `json:"setId"`
	Action string `json:"action"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Actor  string `json:"actor,omitempty"`
	Note   string `json:"note,omitempty"`
	At     string `json:"at"`
}

// ActionRequest is the body of a reviewer action.
type ActionRequest struct {
	Actor string `json:"actor"`
	Note  string `json:"note"`
}

// ActionResult reports the set after a reviewer action.
type ActionResult struct {
	Set      DocumentSetView `json:"set"`
	Activity ActivityView    `json:"activity"`
}

// EvaluationView summarizes one evaluation batch.
type EvaluationView struct {
	RequestID string        `json:"requestId"`
	Requested int           `json:"requested"`
	Evaluated int           `json:"evaluated"`
	Changed   int           `json:"changed"`
	Failed    int           `json:"failed"`
	Errors    int           `json:"errors"`
	Missing   []string      `json:"missing,omitempty"`
	Outcomes  []OutcomeView `json:"outcomes"`
}

// OutcomeView reports what evaluation did to one set.
type OutcomeView struct {
	SetID   string          `json:"setId"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	Issues  IssueCountsView `json:"issues"`
	Changed bool            `json:"changed"`
	Error   string          `json:"error,omitempty"`
}

// ImportResult reports the sets created from a bundle.
type ImportResult struct {
	Imported   []string        `json:"imported"`
	Evaluation *EvaluationView `json:"evaluation,omitempty"`
}

// WorkflowStatus summarizes evaluation workers and queue counts.
type WorkflowStatus struct {
	Running    bool            `json:"running"`
	Workers    int             `json:"workers"`
	LastError  string          `json:"lastError,omitempty"`
	LastBatch  *EvaluationView `json:"lastBatch,omitempty"`
	QueueStats map[string]int  `json:"queueStats"`
}

// DaemonStatus aggregates runtime information for the status endpoint.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	Bind         string         `json:"bind"`
	DatabasePath string         `json:"databasePath"`
	IndexedSets  int            `json:"indexedSets"`
	Workflow     WorkflowStatus `json:"workflow"`
}
