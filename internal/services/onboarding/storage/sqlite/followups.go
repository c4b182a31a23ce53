package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/filter"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

const followUpColumns = `id, onboarding_id, follow_up_type, reason, message, fields_concerned, initiated_by,
	is_automatic, status, escalation_level, escalated_to, escalated_at, ai_generated, ai_model,
	ai_prompt_version, email_sent, email_sent_at, created_at, sent_at, read_at, responded_at, resolved_at`

const defaultFollowUpQueryLimit = 100

// PutFollowUp inserts or replaces one follow-up.
func (s *Store) PutFollowUp(ctx context.Context, followUp domain.FollowUp) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("follow-up id", followUp.ID)
	if err != nil {
		return err
	}
	onboardingID, err := requireID("onboarding id", followUp.OnboardingID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO follow_ups (`+followUpColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		follow_up_type = excluded.follow_up_type,
		reason = excluded.reason,
		message = excluded.message,
		fields_concerned = excluded.fields_concerned,
		initiated_by = excluded.initiated_by,
		is_automatic = excluded.is_automatic,
		status = excluded.status,
		escalation_level = excluded.escalation_level,
		escalated_to = excluded.escalated_to,
		escalated_at = excluded.escalated_at,
		ai_generated = excluded.ai_generated,
		ai_model = excluded.ai_model,
		ai_prompt_version = excluded.ai_prompt_version,
		email_sent = excluded.email_sent,
		email_sent_at = excluded.email_sent_at,
		sent_at = excluded.sent_at,
		read_at = excluded.read_at,
		responded_at = excluded.responded_at,
		resolved_at = excluded.resolved_at
	`,
		id,
		onboardingID,
		string(followUp.Type),
		followUp.Reason,
		followUp.Message,
		followUp.FieldsConcerned,
		followUp.InitiatedBy,
		boolInt(followUp.IsAutomatic),
		string(followUp.Status),
		followUp.EscalationLevel,
		followUp.EscalatedTo,
		nullMillis(followUp.EscalatedAt),
		boolInt(followUp.AIGenerated),
		followUp.AIModel,
		followUp.AIPromptVersion,
		boolInt(followUp.EmailSent),
		nullMillis(followUp.EmailSentAt),
		toMillis(followUp.CreatedAt),
		nullMillis(followUp.SentAt),
		nullMillis(followUp.ReadAt),
		nullMillis(followUp.RespondedAt),
		nullMillis(followUp.ResolvedAt),
	)
	if err != nil {
		return writeErr(err, "put follow-up")
	}
	return nil
}

// GetFollowUp loads one follow-up by id.
func (s *Store) GetFollowUp(ctx context.Context, id string) (domain.FollowUp, error) {
	if err := s.ready(ctx); err != nil {
		return domain.FollowUp{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+followUpColumns+` FROM follow_ups WHERE id = ?`, id)
	followUp, err := scanFollowUp(row.Scan)
	if err != nil {
		return domain.FollowUp{}, notFoundOr(err, "get follow-up")
	}
	return followUp, nil
}

// ListFollowUpsByOnboarding lists follow-ups of one onboarding newest-first.
func (s *Store) ListFollowUpsByOnboarding(ctx context.Context, onboardingID string) ([]domain.FollowUp, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.queryFollowUps(ctx, `SELECT `+followUpColumns+` FROM follow_ups
	WHERE onboarding_id = ?
	ORDER BY created_at DESC, rowid DESC`, onboardingID)
}

// QueryFollowUps lists follow-ups matching a translated filter newest-first.
func (s *Store) QueryFollowUps(ctx context.Context, cond filter.Condition, limit int) ([]domain.FollowUp, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultFollowUpQueryLimit
	}
	query := `SELECT ` + followUpColumns + ` FROM follow_ups`
	args := make([]any, 0, len(cond.Params)+1)
	if !cond.Empty() {
		query += ` WHERE ` + cond.Clause
		args = append(args, cond.Params...)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)
	return s.queryFollowUps(ctx, query, args...)
}

// ListUnresponsiveOnboardingIDs groups unanswered follow-ups per onboarding.
func (s *Store) ListUnresponsiveOnboardingIDs(ctx context.Context, statuses []domain.FollowUpStatus, cutoff time.Time, minCount int) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return []string{}, nil
	}
	args := make([]any, 0, len(statuses)+2)
	for _, status := range statuses {
		args = append(args, string(status))
	}
	args = append(args, toMillis(cutoff), minCount)

	rows, err := s.db.QueryContext(ctx, `
	SELECT onboarding_id
	FROM follow_ups
	WHERE status IN (`+inPlaceholders(len(statuses))+`) AND created_at < ?
	GROUP BY onboarding_id
	HAVING COUNT(*) >= ?
	ORDER BY MIN(created_at), onboarding_id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list unresponsive onboardings: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unresponsive onboarding: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unresponsive onboardings: %w", err)
	}
	return ids, nil
}

// CountFollowUps counts follow-ups of one onboarding in the given statuses.
func (s *Store) CountFollowUps(ctx context.Context, onboardingID string, statuses []domain.FollowUpStatus) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if len(statuses) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(statuses)+1)
	args = append(args, onboardingID)
	for _, status := range statuses {
		args = append(args, string(status))
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM follow_ups
	WHERE onboarding_id = ? AND status IN (`+inPlaceholders(len(statuses))+`)
	`, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count follow-ups: %w", err)
	}
	return count, nil
}

// LatestFollowUp loads the newest follow-up of one onboarding.
func (s *Store) LatestFollowUp(ctx context.Context, onboardingID string) (domain.FollowUp, error) {
	if err := s.ready(ctx); err != nil {
		return domain.FollowUp{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+followUpColumns+` FROM follow_ups
	WHERE onboarding_id = ?
	ORDER BY created_at DESC, rowid DESC
	LIMIT 1`, onboardingID)
	followUp, err := scanFollowUp(row.Scan)
	if err != nil {
		return domain.FollowUp{}, notFoundOr(err, "get latest follow-up")
	}
	return followUp, nil
}

// MaxEscalationLevel returns the highest escalation level recorded for a type.
func (s *Store) MaxEscalationLevel(ctx context.Context, onboardingID string, followUpType domain.FollowUpType) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var level sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
	SELECT MAX(escalation_level) FROM follow_ups
	WHERE onboarding_id = ? AND follow_up_type = ?
	`, onboardingID, string(followUpType)).Scan(&level); err != nil {
		return 0, fmt.Errorf("max escalation level: %w", err)
	}
	if !level.Valid {
		return -1, nil
	}
	return int(level.Int64), nil
}

func (s *Store) queryFollowUps(ctx context.Context, query string, args ...any) ([]domain.FollowUp, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list follow-ups: %w", err)
	}
	defer rows.Close()

	followUps := make([]domain.FollowUp, 0)
	for rows.Next() {
		followUp, err := scanFollowUp(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		followUps = append(followUps, followUp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow-ups: %w", err)
	}
	return followUps, nil
}

func scanFollowUp(scan scanner) (domain.FollowUp, error) {
	var followUp domain.FollowUp
	var followUpType, status string
	var isAutomatic, aiGenerated, emailSent int
	var escalatedAt, emailSentAt, sentAt, readAt, respondedAt, resolvedAt sql.NullInt64
	var createdAt int64
	if err := scan(
		&followUp.ID,
		&followUp.OnboardingID,
		&followUpType,
		&followUp.Reason,
		&followUp.Message,
		&followUp.FieldsConcerned,
		&followUp.InitiatedBy,
		&isAutomatic,
		&status,
		&followUp.EscalationLevel,
		&followUp.EscalatedTo,
		&escalatedAt,
		&aiGenerated,
		&followUp.AIModel,
		&followUp.AIPromptVersion,
		&emailSent,
		&emailSentAt,
		&createdAt,
		&sentAt,
		&readAt,
		&respondedAt,
		&resolvedAt,
	); err != nil {
		return domain.FollowUp{}, err
	}
	followUp.Type = domain.FollowUpType(followUpType)
	followUp.Status = domain.FollowUpStatus(status)
	followUp.IsAutomatic = isAutomatic == 1
	followUp.AIGenerated = aiGenerated == 1
	followUp.EmailSent = emailSent == 1
	followUp.EscalatedAt = timePtr(escalatedAt)
	followUp.EmailSentAt = timePtr(emailSentAt)
	followUp.CreatedAt = fromMillis(createdAt)
	followUp.SentAt = timePtr(sentAt)
	followUp.ReadAt = timePtr(readAt)
	followUp.RespondedAt = timePtr(respondedAt)
	followUp.ResolvedAt = timePtr(resolvedAt)
	return followUp, nil
}

var _ storage.FollowUpStore = (*Store)(nil)
