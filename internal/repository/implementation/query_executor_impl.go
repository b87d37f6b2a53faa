package implementation

import (
	"context"
	"fmt"

	"fleetquery-be/internal/repository/contract"
	"fleetquery-be/pkg/sqlgen"

	"gorm.io/gorm"
)

// maxResultRows caps what a single query may pull back regardless of the
// LIMIT the statement carries.
const maxResultRows = 1000

type ReadOnlyQueryExecutorImpl struct {
	db *gorm.DB
}

func NewReadOnlyQueryExecutor(db *gorm.DB) contract.ReadOnlyQueryExecutor {
	return &ReadOnlyQueryExecutorImpl{db: db}
}

// QueryForList executes sql and scans every row into a map. The read-only
// check is repeated here so no caller can reach the database with a write,
// whatever path the statement took to arrive.
func (e *ReadOnlyQueryExecutorImpl) QueryForList(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	if !sqlgen.IsReadOnly(sql) {
		return nil, &sqlgen.ReadOnlyViolationError{SQL: sql}
	}

	rows := make([]map[string]interface{}, 0)
	if err := e.db.WithContext(ctx).Raw(sql).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	if len(rows) > maxResultRows {
		rows = rows[:maxResultRows]
	}
	return rows, nil
}
