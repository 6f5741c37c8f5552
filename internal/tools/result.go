package tools

// Status tags a tool result so the model can distinguish success from
// recoverable failure without parsing prose.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result is the uniform payload every tool returns to the model.
// Failed results describe what went wrong in Error; the model can retry
// with corrected input or tell the user.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success builds a successful result.
func Success(message string, data any) Result {
	return Result{Status: StatusSuccess, Message: message, Data: data}
}

// Failed builds a failed result the model can act on.
func Failed(errMsg string) Result {
	return Result{Status: StatusFailed, Error: errMsg}
}
