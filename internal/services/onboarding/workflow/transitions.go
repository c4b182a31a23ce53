package workflow

import (
	"context"
	"fmt"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/notify"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

var transitionActivity = map[domain.Status]domain.ActivityType{
	domain.StatusValidated: domain.ActivityVendorApproved,
	domain.StatusDenied:    domain.ActivityVendorDenied,
	domain.StatusDeleted:   domain.ActivityVendorDeleted,
}

// Transition overwrites the request status. Any status may follow any
// other; entering DELETED stamps the deletion time.
func (s *Service) Transition(ctx context.Context, requestID string, target domain.Status, actor string) (domain.VendorRequest, error) {
	if err := s.ready(); err != nil {
		return domain.VendorRequest{}, err
	}
	target, err := domain.ParseStatus(string(target))
	if err != nil {
		return domain.VendorRequest{}, err
	}
	fx := &effects{}
	var updated domain.VendorRequest
	err = s.store.WithinTx(ctx, func(tx storage.Store) error {
		request, err := getRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		updated, err = s.transitionTx(ctx, tx, fx, request, target, actor)
		return err
	})
	if err != nil {
		return domain.VendorRequest{}, err
	}
	s.release(fx)
	return updated, nil
}

// SoftDelete moves a request to DELETED. Deleting twice keeps the first
// deletion time.
func (s *Service) SoftDelete(ctx context.Context, requestID string, actor string) (domain.VendorRequest, error) {
	if err := s.ready(); err != nil {
		return domain.VendorRequest{}, err
	}
	fx := &effects{}
	var deleted domain.VendorRequest
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		request, err := getRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request.IsDeleted() {
			deleted = request
			return nil
		}
		deleted, err = s.transitionTx(ctx, tx, fx, request, domain.StatusDeleted, actor)
		return err
	})
	if err != nil {
		return domain.VendorRequest{}, err
	}
	s.release(fx)
	return deleted, nil
}

// Restore brings a deleted request back as REQUESTED. Restoring a request
// that is not deleted fails with ErrNotDeleted.
func (s *Service) Restore(ctx context.Context, requestID string, actor string) (domain.VendorRequest, error) {
	if err := s.ready(); err != nil {
		return domain.VendorRequest{}, err
	}
	fx := &effects{}
	var restored domain.VendorRequest
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		request, err := getRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !request.IsDeleted() {
			return domain.ErrNotDeleted
		}
		from := request.Status
		request.Status = domain.StatusRequested
		request.DeletedAt = nil
		request.UpdatedAt = s.clock().UTC()
		if err := tx.PutRequest(ctx, request); err != nil {
			return fmt.Errorf("put request: %w", err)
		}
		if err := s.record(ctx, tx, request.ID, domain.ActivityVendorRestored, "Vendor request restored", "", actor); err != nil {
			return err
		}
		if err := s.emit(ctx, tx, fx, request, notify.StatusChanged(s.loc(), request, from, request.Status)); err != nil {
			return err
		}
		restored = request
		return nil
	})
	if err != nil {
		return domain.VendorRequest{}, err
	}
	s.release(fx)
	return restored, nil
}

// transitionTx writes the new status with its audit entry and notifications
// inside the caller's unit of work. Leaving DELETED clears the deletion mark
// so the status and the mark never disagree.
func (s *Service) transitionTx(ctx context.Context, tx storage.Store, fx *effects, request domain.VendorRequest, target domain.Status, actor string) (domain.VendorRequest, error) {
	from := request.Status
	now := s.clock().UTC()
	request.Status = target
	request.UpdatedAt = now
	switch {
	case target == domain.StatusDeleted && request.DeletedAt == nil:
		request.DeletedAt = &now
	case target != domain.StatusDeleted:
		request.DeletedAt = nil
	}
	if err := tx.PutRequest(ctx, request); err != nil {
		return domain.VendorRequest{}, fmt.Errorf("put request: %w", err)
	}

	activityType, ok := transitionActivity[target]
	if !ok {
		activityType = domain.ActivityStatusUpdated
	}
	// A direct move out of DELETED keeps the requested target status rather
	// than REQUESTED, but is still audited as a restore.
	if from == domain.StatusDeleted && target != domain.StatusDeleted {
		activityType = domain.ActivityVendorRestored
	}
	description := fmt.Sprintf("Status changed from %s to %s", from.DisplayName(), target.DisplayName())
	if err := s.record(ctx, tx, request.ID, activityType, description, string(from)+" -> "+string(target), actor); err != nil {
		return domain.VendorRequest{}, err
	}
	if err := s.emit(ctx, tx, fx, request, notify.StatusChanged(s.loc(), request, from, target)); err != nil {
		return domain.VendorRequest{}, err
	}
	if target == domain.StatusAwaitingValidation {
		if err := s.emit(ctx, tx, fx, request, notify.ValidationPending(s.loc(), request)); err != nil {
			return domain.VendorRequest{}, err
		}
	}
	return request, nil
}
