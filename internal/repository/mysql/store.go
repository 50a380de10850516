// Package mysql implements repository.Store on MySQL through the
// instrumented database/sql handle.
package mysql

import (
	"context"
	"time"

	"github.com/wearhouse/storefront/internal/db"
	"github.com/wearhouse/storefront/internal/metrics"
)

// Store is the relational repository.Store implementation.
type Store struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewStore creates a MySQL-backed store. metrics may be nil.
func NewStore(database *db.DB, m *metrics.AppMetrics) *Store {
	return &Store{
		db:      database,
		metrics: m,
	}
}

func (s *Store) record(ctx context.Context, operation, table, statement string, start time.Time, success bool) {
	if s.metrics != nil {
		s.metrics.RecordDBQuery(ctx, operation, table, statement, start, success)
	}
}
