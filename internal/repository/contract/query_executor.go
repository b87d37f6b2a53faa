package contract

import "context"

// ReadOnlyQueryExecutor runs a guarded SELECT and returns its rows as
// generic maps. Implementations re-check the read-only property at the
// execution boundary regardless of what the caller already verified.
type ReadOnlyQueryExecutor interface {
	QueryForList(ctx context.Context, sql string) ([]map[string]interface{}, error)
}
