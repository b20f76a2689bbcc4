package tools

// Tool name constants, as exposed to the model.
const (
	EditDocumentName  = "edit_document"
	RecentHistoryName = "get_recent_history"
)

// Error codes carried on tool failures. The model only ever sees the
// textual output, but the codes let callers and tests distinguish
// failure kinds without string matching.
const (
	ErrCodeAccessDenied     = "AccessDenied"
	ErrCodeNotFound         = "NotFound"
	ErrCodeUnsupportedType  = "UnsupportedType"
	ErrCodeTextNotFound     = "TextNotFound"
	ErrCodeInvalidArguments = "InvalidArguments"
	ErrCodeUnknownTool      = "UnknownTool"
	ErrCodeExecution        = "ExecutionFailed"
)

// Status indicates tool execution outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Error is a structured tool failure.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil tool error>"
	}
	if e.Code == "" {
		return e.Message
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Result is the outcome of one tool execution. Output always holds the
// text handed back to the model, for failures included: expected failure
// conditions (missing file, denied partition, unmatched text) are results
// the model should see and react to, not turn-aborting errors.
type Result struct {
	Status Status `json:"status"`
	Output string `json:"output"`
	Error  *Error `json:"error,omitempty"`
}

// success builds a successful Result.
func success(output string) Result {
	return Result{Status: StatusSuccess, Output: output}
}

// failure builds an error Result. The message doubles as the model-facing
// output.
func failure(code, message string) Result {
	return Result{
		Status: StatusError,
		Output: message,
		Error:  &Error{Code: code, Message: message},
	}
}
