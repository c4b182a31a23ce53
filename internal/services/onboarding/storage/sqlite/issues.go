package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

const issueColumns = `id, onboarding_id, issue_type, field_name, field_path, current_value, expected_value,
	message, validation_rule, severity, status, resolved_by, resolution_notes, created_at, resolved_at`

// PutIssue inserts or replaces one validation issue.
func (s *Store) PutIssue(ctx context.Context, issue domain.ValidationIssue) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("issue id", issue.ID)
	if err != nil {
		return err
	}
	onboardingID, err := requireID("onboarding id", issue.OnboardingID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO validation_issues (`+issueColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		issue_type = excluded.issue_type,
		field_name = excluded.field_name,
		field_path = excluded.field_path,
		current_value = excluded.current_value,
		expected_value = excluded.expected_value,
		message = excluded.message,
		validation_rule = excluded.validation_rule,
		severity = excluded.severity,
		status = excluded.status,
		resolved_by = excluded.resolved_by,
		resolution_notes = excluded.resolution_notes,
		resolved_at = excluded.resolved_at
	`,
		id,
		onboardingID,
		issue.IssueType,
		issue.FieldName,
		issue.FieldPath,
		issue.CurrentValue,
		issue.ExpectedValue,
		issue.Message,
		issue.ValidationRule,
		string(issue.Severity),
		string(issue.Status),
		issue.ResolvedBy,
		issue.ResolutionNotes,
		toMillis(issue.CreatedAt),
		nullMillis(issue.ResolvedAt),
	)
	if err != nil {
		return writeErr(err, "put validation issue")
	}
	return nil
}

// GetIssue loads one validation issue by id.
func (s *Store) GetIssue(ctx context.Context, id string) (domain.ValidationIssue, error) {
	if err := s.ready(ctx); err != nil {
		return domain.ValidationIssue{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM validation_issues WHERE id = ?`, id)
	issue, err := scanIssue(row.Scan)
	if err != nil {
		return domain.ValidationIssue{}, notFoundOr(err, "get validation issue")
	}
	return issue, nil
}

// ListIssues lists issues of one onboarding oldest-first.
func (s *Store) ListIssues(ctx context.Context, onboardingID string, status domain.IssueStatus) ([]domain.ValidationIssue, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + issueColumns + ` FROM validation_issues WHERE onboarding_id = ?`
	args := []any{onboardingID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list validation issues: %w", err)
	}
	defer rows.Close()

	issues := make([]domain.ValidationIssue, 0)
	for rows.Next() {
		issue, err := scanIssue(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan validation issue: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation issues: %w", err)
	}
	return issues, nil
}

func scanIssue(scan scanner) (domain.ValidationIssue, error) {
	var issue domain.ValidationIssue
	var severity, status string
	var createdAt int64
	var resolvedAt sql.NullInt64
	if err := scan(
		&issue.ID,
		&issue.OnboardingID,
		&issue.IssueType,
		&issue.FieldName,
		&issue.FieldPath,
		&issue.CurrentValue,
		&issue.ExpectedValue,
		&issue.Message,
		&issue.ValidationRule,
		&severity,
		&status,
		&issue.ResolvedBy,
		&issue.ResolutionNotes,
		&createdAt,
		&resolvedAt,
	); err != nil {
		return domain.ValidationIssue{}, err
	}
	issue.Severity = domain.Severity(severity)
	issue.Status = domain.IssueStatus(status)
	issue.CreatedAt = fromMillis(createdAt)
	issue.ResolvedAt = timePtr(resolvedAt)
	return issue, nil
}
