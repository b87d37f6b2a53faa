package cot

import (
	"errors"
	"fmt"
)

// ErrNoSchemaMatch means the vector search returned zero candidates, so no
// schema context exists to reason over.
var ErrNoSchemaMatch = errors.New("no schema chunks matched the query")

// EmbeddingError means the query could not be embedded, so retrieval never
// ran. It wraps the provider error when one exists.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query embedding failed: %v", e.Err)
	}
	return "query embedding produced an empty vector"
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
