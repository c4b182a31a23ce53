package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

const onboardingColumns = `id, request_id, business_json, contact_json, banking_json, compliance_json,
	is_complete, submitted_at, created_at, updated_at`

// PutOnboarding inserts or replaces one vendor submission. A second
// submission row for the same request is a conflict.
func (s *Store) PutOnboarding(ctx context.Context, onboarding domain.VendorOnboarding) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("onboarding id", onboarding.ID)
	if err != nil {
		return err
	}
	requestID, err := requireID("request id", onboarding.RequestID)
	if err != nil {
		return err
	}

	business, err := encodeSection(onboarding.Business)
	if err != nil {
		return fmt.Errorf("encode business details: %w", err)
	}
	contact, err := encodeSection(onboarding.Contact)
	if err != nil {
		return fmt.Errorf("encode contact details: %w", err)
	}
	banking, err := encodeSection(onboarding.Banking)
	if err != nil {
		return fmt.Errorf("encode banking details: %w", err)
	}
	compliance, err := encodeSection(onboarding.Compliance)
	if err != nil {
		return fmt.Errorf("encode compliance details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO vendor_onboardings (`+onboardingColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		business_json = excluded.business_json,
		contact_json = excluded.contact_json,
		banking_json = excluded.banking_json,
		compliance_json = excluded.compliance_json,
		is_complete = excluded.is_complete,
		submitted_at = excluded.submitted_at,
		updated_at = excluded.updated_at
	`,
		id,
		requestID,
		business,
		contact,
		banking,
		compliance,
		boolInt(onboarding.IsComplete),
		nullMillis(onboarding.SubmittedAt),
		toMillis(onboarding.CreatedAt),
		toMillis(onboarding.UpdatedAt),
	)
	if err != nil {
		return writeErr(err, "put vendor onboarding")
	}
	return nil
}

// GetOnboarding loads one submission by id.
func (s *Store) GetOnboarding(ctx context.Context, id string) (domain.VendorOnboarding, error) {
	if err := s.ready(ctx); err != nil {
		return domain.VendorOnboarding{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+onboardingColumns+` FROM vendor_onboardings WHERE id = ?`, id)
	onboarding, err := scanOnboarding(row.Scan)
	if err != nil {
		return domain.VendorOnboarding{}, notFoundOr(err, "get vendor onboarding")
	}
	return onboarding, nil
}

// GetOnboardingByRequest loads the submission attached to a request.
func (s *Store) GetOnboardingByRequest(ctx context.Context, requestID string) (domain.VendorOnboarding, error) {
	if err := s.ready(ctx); err != nil {
		return domain.VendorOnboarding{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+onboardingColumns+` FROM vendor_onboardings WHERE request_id = ?`, requestID)
	onboarding, err := scanOnboarding(row.Scan)
	if err != nil {
		return domain.VendorOnboarding{}, notFoundOr(err, "get vendor onboarding by request")
	}
	return onboarding, nil
}

func encodeSection[T any](section *T) (sql.NullString, error) {
	if section == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(section)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeSection[T any](value sql.NullString) (*T, error) {
	if !value.Valid {
		return nil, nil
	}
	section := new(T)
	if err := json.Unmarshal([]byte(value.String), section); err != nil {
		return nil, err
	}
	return section, nil
}

func scanOnboarding(scan scanner) (domain.VendorOnboarding, error) {
	var onboarding domain.VendorOnboarding
	var business, contact, banking, compliance sql.NullString
	var isComplete int
	var submittedAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := scan(
		&onboarding.ID,
		&onboarding.RequestID,
		&business,
		&contact,
		&banking,
		&compliance,
		&isComplete,
		&submittedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.VendorOnboarding{}, err
	}

	var err error
	if onboarding.Business, err = decodeSection[domain.BusinessDetails](business); err != nil {
		return domain.VendorOnboarding{}, fmt.Errorf("decode business details: %w", err)
	}
	if onboarding.Contact, err = decodeSection[domain.ContactDetails](contact); err != nil {
		return domain.VendorOnboarding{}, fmt.Errorf("decode contact details: %w", err)
	}
	if onboarding.Banking, err = decodeSection[domain.BankingDetails](banking); err != nil {
		return domain.VendorOnboarding{}, fmt.Errorf("decode banking details: %w", err)
	}
	if onboarding.Compliance, err = decodeSection[domain.ComplianceDetails](compliance); err != nil {
		return domain.VendorOnboarding{}, fmt.Errorf("decode compliance details: %w", err)
	}
	onboarding.IsComplete = isComplete == 1
	onboarding.SubmittedAt = timePtr(submittedAt)
	onboarding.CreatedAt = fromMillis(createdAt)
	onboarding.UpdatedAt = fromMillis(updatedAt)
	return onboarding, nil
}
