package store

import "fmt"

// Error is a structured, user-presentable failure reason. Code is machine
// readable and may be empty for failures with no finer classification.
type Error struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Error codes attached to persistence failures when the underlying cause
// can be classified.
const (
	CodeDuplicate  = "duplicate"
	CodeForeignKey = "foreign_key"
)

// Result is the outcome of a store mutation. Persistence failures (constraint
// violations, zero rows affected) are reported here, never as returned
// errors, so callers can render them to end users uniformly.
type Result struct {
	Succeeded bool    `json:"succeeded"`
	Errors    []Error `json:"errors,omitempty"`
}

func Ok() Result {
	return Result{Succeeded: true}
}

func Fail(errs ...Error) Result {
	return Result{Errors: errs}
}

// String renders the result for logs.
func (r Result) String() string {
	if r.Succeeded {
		return "succeeded"
	}
	return fmt.Sprintf("failed: %v", r.Errors)
}
