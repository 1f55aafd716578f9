package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cugino/restaurant-auth/internal/api/metrics"
	"github.com/cugino/restaurant-auth/internal/core/domain"
)

// AuditRepository appends drained domain events to the audit_events table.
// Rows are immutable; nothing in the application reads them back.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record persists one event. The data payload is stored as JSON.
func (r *AuditRepository) Record(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO audit_events (entity_id, event_type, data, occurred_at) VALUES (?, ?, ?, ?)",
		event.EntityID, string(event.Type), data, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	metrics.DomainEventsTotal.WithLabelValues(string(event.Type)).Inc()
	return nil
}
