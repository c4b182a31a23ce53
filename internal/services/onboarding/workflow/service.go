// Package workflow drives a vendor request through its onboarding statuses:
// invitation, submission, validation, follow-up and final decision.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/platform/id"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/activity"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/dispatch"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/followup"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/notify"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/validation"
)

// DefaultInvitationTTL is how long an invitation link stays usable.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// Dependencies are the collaborators built by the composition root.
type Dependencies struct {
	Evaluator *validation.Evaluator
	FollowUps *followup.Engine
	Emitter   *notify.Emitter
	Activity  *activity.Recorder
	// Mirror receives notifications after commit. Optional.
	Mirror *notify.Mirror
}

// Service owns the vendor request lifecycle. Every operation runs one unit
// of work; notification mirroring and message dispatch happen after commit.
type Service struct {
	store         storage.Store
	evaluator     *validation.Evaluator
	followUps     *followup.Engine
	emitter       *notify.Emitter
	recorder      *activity.Recorder
	mirror        *notify.Mirror
	clock         func() time.Time
	newID         func() (string, error)
	newToken      func() (string, error)
	invitationTTL time.Duration
	logf          func(string, ...any)
}

// NewService builds a workflow service. A nil clock uses time.Now.
func NewService(store storage.Store, deps Dependencies, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	recorder := deps.Activity
	if recorder == nil {
		recorder = activity.NewRecorder(clock, newID)
	}
	return &Service{
		store:         store,
		evaluator:     deps.Evaluator,
		followUps:     deps.FollowUps,
		emitter:       deps.Emitter,
		recorder:      recorder,
		mirror:        deps.Mirror,
		clock:         clock,
		newID:         newID,
		newToken:      id.NewToken,
		invitationTTL: DefaultInvitationTTL,
		logf:          log.Printf,
	}
}

// SetTokenGenerator replaces the invitation token generator.
func (s *Service) SetTokenGenerator(newToken func() (string, error)) {
	if s == nil || newToken == nil {
		return
	}
	s.newToken = newToken
}

// SetInvitationTTL overrides how long invitation links stay usable.
func (s *Service) SetInvitationTTL(ttl time.Duration) {
	if s == nil || ttl <= 0 {
		return
	}
	s.invitationTTL = ttl
}

// SetLogger replaces the logger used for operational events.
func (s *Service) SetLogger(logf func(string, ...any)) {
	if s == nil || logf == nil {
		return
	}
	s.logf = logf
}

// effects collects the side effects released once a unit of work commits.
type effects struct {
	notifications []domain.Notification
	messages      []dispatch.Message
}

func (e *effects) notify(notification domain.Notification) {
	if notification.ID != "" {
		e.notifications = append(e.notifications, notification)
	}
}

func (s *Service) release(fx *effects) {
	if fx == nil {
		return
	}
	s.mirror.Forward(fx.notifications...)
	if s.followUps != nil {
		s.followUps.Dispatch(fx.messages...)
	}
}

func (s *Service) ready() error {
	if s == nil || s.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if s.emitter == nil {
		return fmt.Errorf("notification emitter is not configured")
	}
	if s.newID == nil {
		return fmt.Errorf("id generator is not configured")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, tx storage.Store, fx *effects, request domain.VendorRequest, content notify.Content) error {
	notification, err := s.emitter.Emit(ctx, tx, request, content)
	if err != nil {
		return err
	}
	fx.notify(notification)
	return nil
}

func (s *Service) record(ctx context.Context, tx storage.Store, requestID string, activityType domain.ActivityType, description string, details string, actor string) error {
	_, err := s.recorder.Record(ctx, tx, activity.Entry{
		RequestID:   requestID,
		Type:        activityType,
		Description: description,
		Details:     details,
		Actor:       actor,
	})
	return err
}

func (s *Service) loc() notify.Localizer {
	return s.emitter.Localizer()
}

func getRequest(ctx context.Context, store storage.RequestStore, requestID string) (domain.VendorRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return domain.VendorRequest{}, domain.InvalidInput("request id is required", nil)
	}
	request, err := store.GetRequest(ctx, requestID)
	if err != nil {
		return domain.VendorRequest{}, notFound(err, "vendor_request", requestID)
	}
	return request, nil
}

func getOnboarding(ctx context.Context, store storage.OnboardingStore, onboardingID string) (domain.VendorOnboarding, error) {
	onboardingID = strings.TrimSpace(onboardingID)
	if onboardingID == "" {
		return domain.VendorOnboarding{}, domain.InvalidInput("onboarding id is required", nil)
	}
	onboarding, err := store.GetOnboarding(ctx, onboardingID)
	if err != nil {
		return domain.VendorOnboarding{}, notFound(err, "vendor_onboarding", onboardingID)
	}
	return onboarding, nil
}

func notFound(err error, entity string, key string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NotFound(entity, key)
	}
	return err
}
