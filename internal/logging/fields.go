package logging

const (
	// FieldComponent names the subsystem emitting the record.
	FieldComponent = "component"
	// FieldSetID identifies the document set a record concerns.
	FieldSetID = "set_id"
	// FieldRequestID correlates records belonging to one batch or HTTP request.
	FieldRequestID = "request_id"
	// FieldStatus carries a document set status.
	FieldStatus = "status"
	// FieldAction carries a reviewer or workflow action.
	FieldAction = "action"
	// FieldEventType is a stable machine-readable name for the event.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries the classified error kind.
	FieldErrorKind = "error_kind"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags anomalies that should stand out.
	FieldAlert = "alert"
)
