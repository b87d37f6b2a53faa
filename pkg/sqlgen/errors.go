package sqlgen

import "fmt"

// ReadOnlyViolationError means the deterministic guardrail rejected a
// generated statement. Callers should log it as a security event, not a
// generic failure.
type ReadOnlyViolationError struct {
	SQL string
}

func (e *ReadOnlyViolationError) Error() string {
	return "generated SQL is not read-only: only SELECT/WITH queries are allowed"
}

// GenerationError means the completion call failed or produced unusable
// output before the guardrail was ever reached.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sql generation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("sql generation failed: %s", e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
