package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

// PutActivity appends one audit entry.
func (s *Store) PutActivity(ctx context.Context, entry domain.ActivityEntry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("activity id", entry.ID)
	if err != nil {
		return err
	}
	requestID, err := requireID("request id", entry.RequestID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO activity_log (id, request_id, activity_type, description, details, performed_by, performed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		requestID,
		string(entry.Type),
		entry.Description,
		entry.Details,
		entry.PerformedBy,
		toMillis(entry.PerformedAt),
	)
	if err != nil {
		return writeErr(err, "put activity")
	}
	return nil
}

// ListActivity lists a request's audit trail newest-first.
func (s *Store) ListActivity(ctx context.Context, requestID string) ([]domain.ActivityEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, request_id, activity_type, description, details, performed_by, performed_at
	FROM activity_log
	WHERE request_id = ?
	ORDER BY performed_at DESC, rowid DESC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ActivityEntry, 0)
	for rows.Next() {
		var entry domain.ActivityEntry
		var activityType string
		var performedAt int64
		if err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&activityType,
			&entry.Description,
			&entry.Details,
			&entry.PerformedBy,
			&performedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entry.Type = domain.ActivityType(activityType)
		entry.PerformedAt = fromMillis(performedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return entries, nil
}
