package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

const historyColumns = `id, follow_up_id, onboarding_id, template_id, model, prompt, generated_message,
	tokens, succeeded, error, was_edited, rating, feedback, created_at`

// PutMessageHistory inserts or replaces one generation audit row.
func (s *Store) PutMessageHistory(ctx context.Context, history domain.MessageHistory) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("message history id", history.ID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO message_history (`+historyColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		follow_up_id = excluded.follow_up_id,
		generated_message = excluded.generated_message,
		tokens = excluded.tokens,
		succeeded = excluded.succeeded,
		error = excluded.error,
		was_edited = excluded.was_edited,
		rating = excluded.rating,
		feedback = excluded.feedback
	`,
		id,
		history.FollowUpID,
		history.OnboardingID,
		history.TemplateID,
		history.Model,
		history.Prompt,
		history.GeneratedMessage,
		history.Tokens,
		boolInt(history.Succeeded),
		history.Error,
		boolInt(history.WasEdited),
		history.Rating,
		history.Feedback,
		toMillis(history.CreatedAt),
	)
	if err != nil {
		return writeErr(err, "put message history")
	}
	return nil
}

// GetMessageHistory loads one generation audit row.
func (s *Store) GetMessageHistory(ctx context.Context, id string) (domain.MessageHistory, error) {
	if err := s.ready(ctx); err != nil {
		return domain.MessageHistory{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM message_history WHERE id = ?`, id)
	history, err := scanHistory(row.Scan)
	if err != nil {
		return domain.MessageHistory{}, notFoundOr(err, "get message history")
	}
	return history, nil
}

// ListMessageHistorySince lists generation rows created at or after since.
func (s *Store) ListMessageHistorySince(ctx context.Context, since time.Time) ([]domain.MessageHistory, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+historyColumns+` FROM message_history
	WHERE created_at >= ?
	ORDER BY created_at, id`, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("list message history: %w", err)
	}
	defer rows.Close()

	history := make([]domain.MessageHistory, 0)
	for rows.Next() {
		row, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan message history: %w", err)
		}
		history = append(history, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message history: %w", err)
	}
	return history, nil
}

func scanHistory(scan scanner) (domain.MessageHistory, error) {
	var history domain.MessageHistory
	var succeeded, wasEdited int
	var createdAt int64
	if err := scan(
		&history.ID,
		&history.FollowUpID,
		&history.OnboardingID,
		&history.TemplateID,
		&history.Model,
		&history.Prompt,
		&history.GeneratedMessage,
		&history.Tokens,
		&succeeded,
		&history.Error,
		&wasEdited,
		&history.Rating,
		&history.Feedback,
		&createdAt,
	); err != nil {
		return domain.MessageHistory{}, err
	}
	history.Succeeded = succeeded == 1
	history.WasEdited = wasEdited == 1
	history.CreatedAt = fromMillis(createdAt)
	return history, nil
}
