package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

const requestColumns = `id, vendor_name, vendor_email, contact_person, contact_number, vendor_category, remarks,
	status, invitation_token, invitation_sent_at, invitation_expires_at, created_by, created_at, updated_at, deleted_at`

// PutRequest inserts or replaces one vendor request.
func (s *Store) PutRequest(ctx context.Context, request domain.VendorRequest) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("request id", request.ID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(request.VendorEmail) == "" {
		return fmt.Errorf("vendor email is required")
	}
	if strings.TrimSpace(request.InvitationToken) == "" {
		return fmt.Errorf("invitation token is required")
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO vendor_requests (`+requestColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		vendor_name = excluded.vendor_name,
		vendor_email = excluded.vendor_email,
		contact_person = excluded.contact_person,
		contact_number = excluded.contact_number,
		vendor_category = excluded.vendor_category,
		remarks = excluded.remarks,
		status = excluded.status,
		invitation_token = excluded.invitation_token,
		invitation_sent_at = excluded.invitation_sent_at,
		invitation_expires_at = excluded.invitation_expires_at,
		created_by = excluded.created_by,
		updated_at = excluded.updated_at,
		deleted_at = excluded.deleted_at
	`,
		id,
		request.VendorName,
		request.VendorEmail,
		request.ContactPerson,
		request.ContactNumber,
		request.VendorCategory,
		request.Remarks,
		string(request.Status),
		request.InvitationToken,
		nullMillis(request.InvitationSentAt),
		nullMillis(request.InvitationExpiresAt),
		request.CreatedBy,
		toMillis(request.CreatedAt),
		toMillis(request.UpdatedAt),
		nullMillis(request.DeletedAt),
	)
	if err != nil {
		return writeErr(err, "put vendor request")
	}
	return nil
}

// GetRequest loads one vendor request by id, deleted or not.
func (s *Store) GetRequest(ctx context.Context, id string) (domain.VendorRequest, error) {
	return s.getRequestBy(ctx, "id", id)
}

// GetRequestByEmail loads one vendor request by vendor email.
func (s *Store) GetRequestByEmail(ctx context.Context, email string) (domain.VendorRequest, error) {
	return s.getRequestBy(ctx, "vendor_email", email)
}

// GetRequestByToken loads one vendor request by invitation token.
func (s *Store) GetRequestByToken(ctx context.Context, token string) (domain.VendorRequest, error) {
	return s.getRequestBy(ctx, "invitation_token", token)
}

func (s *Store) getRequestBy(ctx context.Context, column string, value string) (domain.VendorRequest, error) {
	if err := s.ready(ctx); err != nil {
		return domain.VendorRequest{}, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.VendorRequest{}, storage.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM vendor_requests WHERE `+column+` = ?`, value)
	request, err := scanRequest(row.Scan)
	if err != nil {
		return domain.VendorRequest{}, notFoundOr(err, "get vendor request")
	}
	return request, nil
}

// ListRequests lists vendor requests newest-first.
func (s *Store) ListRequests(ctx context.Context, filter storage.RequestFilter) ([]domain.VendorRequest, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + requestColumns + ` FROM vendor_requests WHERE deleted_at IS NULL`
	if filter.Deleted {
		query = `SELECT ` + requestColumns + ` FROM vendor_requests WHERE deleted_at IS NOT NULL`
	}
	args := []any{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vendor requests: %w", err)
	}
	defer rows.Close()

	requests := make([]domain.VendorRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan vendor request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendor requests: %w", err)
	}
	return requests, nil
}

func scanRequest(scan scanner) (domain.VendorRequest, error) {
	var request domain.VendorRequest
	var status string
	var sentAt, expiresAt, deletedAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := scan(
		&request.ID,
		&request.VendorName,
		&request.VendorEmail,
		&request.ContactPerson,
		&request.ContactNumber,
		&request.VendorCategory,
		&request.Remarks,
		&status,
		&request.InvitationToken,
		&sentAt,
		&expiresAt,
		&request.CreatedBy,
		&createdAt,
		&updatedAt,
		&deletedAt,
	); err != nil {
		return domain.VendorRequest{}, err
	}
	request.Status = domain.Status(status)
	request.InvitationSentAt = timePtr(sentAt)
	request.InvitationExpiresAt = timePtr(expiresAt)
	request.CreatedAt = fromMillis(createdAt)
	request.UpdatedAt = fromMillis(updatedAt)
	request.DeletedAt = timePtr(deletedAt)
	return request, nil
}
