package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/vendorflow/internal/platform/errors"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/notify"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

// CreateRequestInput describes a vendor to invite.
type CreateRequestInput struct {
	VendorName     string
	VendorEmail    string
	ContactPerson  string
	ContactNumber  string
	VendorCategory string
	Remarks        string
	CreatedBy      string
}

// CreateRequest registers a vendor and issues its invitation link. Emails
// are unique across active and deleted requests.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (domain.VendorRequest, error) {
	if err := s.ready(); err != nil {
		return domain.VendorRequest{}, err
	}
	name := strings.TrimSpace(input.VendorName)
	if name == "" {
		return domain.VendorRequest{}, domain.InvalidInput("vendor name is required", nil)
	}
	email := strings.ToLower(strings.TrimSpace(input.VendorEmail))
	if email == "" || !strings.Contains(email, "@") {
		return domain.VendorRequest{}, domain.InvalidInput("valid vendor email is required", map[string]string{"email": input.VendorEmail})
	}
	createdBy := strings.TrimSpace(input.CreatedBy)
	if createdBy == "" {
		return domain.VendorRequest{}, domain.InvalidInput("creator is required", nil)
	}
	requestID, err := s.newID()
	if err != nil {
		return domain.VendorRequest{}, fmt.Errorf("generate request id: %w", err)
	}
	token, err := s.newToken()
	if err != nil {
		return domain.VendorRequest{}, fmt.Errorf("generate invitation token: %w", err)
	}
	now := s.clock().UTC()
	expires := now.Add(s.invitationTTL)

	request := domain.VendorRequest{
		ID:                  requestID,
		VendorName:          name,
		VendorEmail:         email,
		ContactPerson:       strings.TrimSpace(input.ContactPerson),
		ContactNumber:       strings.TrimSpace(input.ContactNumber),
		VendorCategory:      strings.TrimSpace(input.VendorCategory),
		Remarks:             input.Remarks,
		Status:              domain.StatusRequested,
		InvitationToken:     token,
		InvitationSentAt:    &now,
		InvitationExpiresAt: &expires,
		CreatedBy:           createdBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	fx := &effects{}
	err = s.store.WithinTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetRequestByEmail(ctx, email); err == nil {
			return apperrors.WithMetadata(apperrors.CodeConflict, "vendor email already registered", map[string]string{"email": email})
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("get request by email: %w", err)
		}
		if err := tx.PutRequest(ctx, request); err != nil {
			return fmt.Errorf("put request: %w", err)
		}
		if err := s.record(ctx, tx, request.ID, domain.ActivityRequestCreated, "Vendor request created", request.VendorName, createdBy); err != nil {
			return err
		}
		if err := s.record(ctx, tx, request.ID, domain.ActivityInvitationSent, "Invitation sent to "+email, "", createdBy); err != nil {
			return err
		}
		return s.emit(ctx, tx, fx, request, notify.RequestCreated(s.loc(), request))
	})
	if err != nil {
		return domain.VendorRequest{}, err
	}
	s.release(fx)
	return request, nil
}

// GetRequest returns a vendor request by id, deleted or not.
func (s *Service) GetRequest(ctx context.Context, requestID string) (domain.VendorRequest, error) {
	if s == nil || s.store == nil {
		return domain.VendorRequest{}, domain.ErrStoreNotConfigured
	}
	return getRequest(ctx, s.store, requestID)
}

// GetRequestByToken resolves an invitation link. Deleted requests are not
// found; expired links fail with ErrInvitationExpired.
func (s *Service) GetRequestByToken(ctx context.Context, token string) (domain.VendorRequest, error) {
	if s == nil || s.store == nil {
		return domain.VendorRequest{}, domain.ErrStoreNotConfigured
	}
	return s.requestByToken(ctx, s.store, token)
}

func (s *Service) requestByToken(ctx context.Context, store storage.RequestStore, token string) (domain.VendorRequest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.VendorRequest{}, domain.InvalidInput("invitation token is required", nil)
	}
	request, err := store.GetRequestByToken(ctx, token)
	if err != nil {
		return domain.VendorRequest{}, notFound(err, "invitation", token)
	}
	if request.IsDeleted() {
		return domain.VendorRequest{}, domain.NotFound("invitation", token)
	}
	if request.InvitationExpired(s.clock()) {
		return domain.VendorRequest{}, apperrors.WithMetadata(apperrors.CodeInvitationExpired, "invitation link expired", map[string]string{"request_id": request.ID})
	}
	return request, nil
}

// OpenInvitation records that the vendor followed the link. The first open
// of a REQUESTED vendor moves it to AWAITING_RESPONSE.
func (s *Service) OpenInvitation(ctx context.Context, token string) (domain.VendorRequest, error) {
	if err := s.ready(); err != nil {
		return domain.VendorRequest{}, err
	}
	fx := &effects{}
	var opened domain.VendorRequest
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		request, err := s.requestByToken(ctx, tx, token)
		if err != nil {
			return err
		}
		if err := s.record(ctx, tx, request.ID, domain.ActivityLinkOpened, "Vendor opened the invitation link", "", request.VendorEmail); err != nil {
			return err
		}
		if request.Status == domain.StatusRequested {
			request, err = s.transitionTx(ctx, tx, fx, request, domain.StatusAwaitingResponse, request.VendorEmail)
			if err != nil {
				return err
			}
		}
		opened = request
		return nil
	})
	if err != nil {
		return domain.VendorRequest{}, err
	}
	s.release(fx)
	return opened, nil
}

// ResendInvitation rotates the invitation token and restarts its expiry.
func (s *Service) ResendInvitation(ctx context.Context, requestID string, actor string) (domain.VendorRequest, error) {
	if err := s.ready(); err != nil {
		return domain.VendorRequest{}, err
	}
	var resent domain.VendorRequest
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		request, err := getRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request.IsDeleted() {
			return domain.InvalidInput("deleted vendor request cannot be invited", map[string]string{"id": request.ID})
		}
		token, err := s.newToken()
		if err != nil {
			return fmt.Errorf("generate invitation token: %w", err)
		}
		now := s.clock().UTC()
		expires := now.Add(s.invitationTTL)
		request.InvitationToken = token
		request.InvitationSentAt = &now
		request.InvitationExpiresAt = &expires
		request.UpdatedAt = now
		if err := tx.PutRequest(ctx, request); err != nil {
			return fmt.Errorf("put request: %w", err)
		}
		if err := s.record(ctx, tx, request.ID, domain.ActivityInvitationResent, "Invitation resent to "+request.VendorEmail, "", actor); err != nil {
			return err
		}
		resent = request
		return nil
	})
	if err != nil {
		return domain.VendorRequest{}, err
	}
	return resent, nil
}

// ListActiveRequests lists requests without a deletion marker, newest first.
func (s *Service) ListActiveRequests(ctx context.Context) ([]domain.VendorRequest, error) {
	return s.listRequests(ctx, storage.RequestFilter{})
}

// ListDeletedRequests lists soft-deleted requests, newest first.
func (s *Service) ListDeletedRequests(ctx context.Context) ([]domain.VendorRequest, error) {
	return s.listRequests(ctx, storage.RequestFilter{Deleted: true})
}

// ListRequestsByStatus lists active requests in one status.
func (s *Service) ListRequestsByStatus(ctx context.Context, status domain.Status) ([]domain.VendorRequest, error) {
	if !status.Valid() {
		return nil, domain.InvalidInput("unknown status", map[string]string{"status": string(status)})
	}
	return s.listRequests(ctx, storage.RequestFilter{Status: status, Deleted: status == domain.StatusDeleted})
}

func (s *Service) listRequests(ctx context.Context, filter storage.RequestFilter) ([]domain.VendorRequest, error) {
	if s == nil || s.store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	return s.store.ListRequests(ctx, filter)
}

// ListActivity returns the request's audit trail, newest first.
func (s *Service) ListActivity(ctx context.Context, requestID string) ([]domain.ActivityEntry, error) {
	if s == nil || s.store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	if _, err := getRequest(ctx, s.store, requestID); err != nil {
		return nil, err
	}
	return s.store.ListActivity(ctx, requestID)
}
