package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

// PutOutboundEmail records one rendered follow-up email.
func (s *Store) PutOutboundEmail(ctx context.Context, email domain.OutboundEmail) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("outbound email id", email.ID)
	if err != nil {
		return err
	}
	followUpID, err := requireID("follow-up id", email.FollowUpID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO outbound_emails (
		id, follow_up_id, recipient, subject, html_body, text_body, resume_token, follow_up_type, status, error, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		status = excluded.status,
		error = excluded.error
	`,
		id,
		followUpID,
		email.Recipient,
		email.Subject,
		email.HTMLBody,
		email.TextBody,
		email.ResumeToken,
		string(email.FollowUpType),
		string(email.Status),
		email.Error,
		toMillis(email.CreatedAt),
	)
	if err != nil {
		return writeErr(err, "put outbound email")
	}
	return nil
}

// ListOutboundEmails lists emails recorded for one follow-up oldest-first.
func (s *Store) ListOutboundEmails(ctx context.Context, followUpID string) ([]domain.OutboundEmail, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, follow_up_id, recipient, subject, html_body, text_body, resume_token, follow_up_type, status, error, created_at
	FROM outbound_emails
	WHERE follow_up_id = ?
	ORDER BY created_at, rowid
	`, followUpID)
	if err != nil {
		return nil, fmt.Errorf("list outbound emails: %w", err)
	}
	defer rows.Close()

	emails := make([]domain.OutboundEmail, 0)
	for rows.Next() {
		var email domain.OutboundEmail
		var followUpType, status string
		var createdAt int64
		if err := rows.Scan(
			&email.ID,
			&email.FollowUpID,
			&email.Recipient,
			&email.Subject,
			&email.HTMLBody,
			&email.TextBody,
			&email.ResumeToken,
			&followUpType,
			&status,
			&email.Error,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbound email: %w", err)
		}
		email.FollowUpType = domain.FollowUpType(followUpType)
		email.Status = domain.OutboundEmailStatus(status)
		email.CreatedAt = fromMillis(createdAt)
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbound emails: %w", err)
	}
	return emails, nil
}
