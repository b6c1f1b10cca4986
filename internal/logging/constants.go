package logging

// Field names shared by all log output so runs can be filtered consistently.
const (
	FieldFile       = "file_path"
	FieldSource     = "source"
	FieldRunID      = "run_id"
	FieldState      = "state"
	FieldNextState  = "next_state"
	FieldLineNumber = "line_number"
	FieldMode       = "mode"
	FieldFormat     = "format"
	FieldCount      = "count"
	FieldPages      = "pages"
	FieldWorkers    = "workers"
	FieldOutputFile = "output_file"
	FieldReason     = "reason"
	FieldDuration   = "duration_ms"
)
