package queue

import "time"

// Action names a change applied to a document set.
type Action string

const (
	ActionImport   Action = "import"
	ActionEvaluate Action = "evaluate"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionAssign   Action = "assign"
	ActionRetry    Action = "retry"
	ActionReopen   Action = "reopen"
	ActionFail     Action = "fail"
)

// Activity is one entry in a set's audit trail.
type Activity struct {
	ID     string    `json:"id"`
	SetID  string    `json:"set_id"`
	Action Action    `json:"action"`
	From   Status    `json:"from,omitempty"`
	To     Status    `json:"to,omitempty"`
	Actor  string    `json:"actor,omitempty"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}
