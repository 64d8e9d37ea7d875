package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for queue item identifiers.
	FieldItemID = "item_id"
	// FieldStage is the standardized structured logging key for workflow stage names.
	FieldStage = "stage"
	// FieldWorker is the standardized structured logging key for worker numbers.
	FieldWorker = "worker"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldEventType classifies a log line for filtering (e.g. "render_complete").
	FieldEventType = "event_type"
	// FieldErrorKind carries services.Details(err).Kind.
	FieldErrorKind = "error_kind"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldProgressStage, FieldProgressPercent and FieldProgressMessage mirror queue progress columns.
	FieldProgressStage   = "progress_stage"
	FieldProgressPercent = "progress_percent"
	FieldProgressMessage = "progress_message"
	// FieldSourcePath is the .blend file a job was created from.
	FieldSourcePath = "source_path"
	// FieldChannel names the output channel (mobile, desktop) a line is about.
	FieldChannel = "channel"
	// FieldJobDir is the per-file output directory.
	FieldJobDir = "job_dir"
)
