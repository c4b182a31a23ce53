// Package followup creates, tracks and escalates corrective communications
// sent to vendors.
package followup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/activity"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/dispatch"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/filter"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/render"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

const defaultListLimit = 200

// Generator produces message text from a system and a user prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (domain.Generation, error)
}

// Engine owns follow-up creation and lifecycle. Records are written in one
// unit of work; messages are dispatched only after that unit commits.
type Engine struct {
	store     storage.Store
	generator Generator
	sender    dispatch.Sender
	recorder  *activity.Recorder
	company   render.Company
	clock     func() time.Time
	newID     func() (string, error)
	logf      func(string, ...any)
}

// NewEngine builds an engine. A nil clock uses time.Now. Without a generator
// every message is rendered from templates; without a sender nothing is
// dispatched.
func NewEngine(store storage.Store, clock func() time.Time, newID func() (string, error)) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		store:    store,
		recorder: activity.NewRecorder(clock, newID),
		clock:    clock,
		newID:    newID,
		logf:     log.Printf,
	}
}

// SetGenerator configures message generation for AI follow-ups.
func (e *Engine) SetGenerator(generator Generator) {
	if e == nil {
		return
	}
	e.generator = generator
}

// SetSender configures message dispatch.
func (e *Engine) SetSender(sender dispatch.Sender) {
	if e == nil {
		return
	}
	e.sender = sender
}

// SetCompany sets the sender identity used by template variables.
func (e *Engine) SetCompany(company render.Company) {
	if e == nil {
		return
	}
	e.company = company
}

// SetLogger replaces the logger used for degraded paths.
func (e *Engine) SetLogger(logf func(string, ...any)) {
	if e == nil || logf == nil {
		return
	}
	e.logf = logf
}

// ManualInput describes a follow-up raised by a procurement user.
type ManualInput struct {
	OnboardingID    string
	Type            domain.FollowUpType
	Message         string
	FieldsConcerned string
	Initiator       string
}

// CreateManualFollowUp records a SENT follow-up initiated by a user and
// dispatches it.
func (e *Engine) CreateManualFollowUp(ctx context.Context, input ManualInput) (domain.FollowUp, error) {
	if err := e.ready(); err != nil {
		return domain.FollowUp{}, err
	}
	initiator := strings.TrimSpace(input.Initiator)
	if initiator == "" {
		return domain.FollowUp{}, domain.InvalidInput("initiator is required", nil)
	}
	followUpType, err := domain.ParseFollowUpType(string(input.Type))
	if err != nil {
		return domain.FollowUp{}, err
	}

	var (
		created domain.FollowUp
		message dispatch.Message
	)
	err = e.store.WithinTx(ctx, func(tx storage.Store) error {
		onboarding, request, err := loadOnboarding(ctx, tx, input.OnboardingID)
		if err != nil {
			return err
		}
		created, message, err = e.createSent(ctx, tx, onboarding, request, sentInput{
			Type:            followUpType,
			Message:         input.Message,
			FieldsConcerned: input.FieldsConcerned,
			Initiator:       initiator,
		})
		return err
	})
	if err != nil {
		return domain.FollowUp{}, err
	}
	e.Dispatch(message)
	return created, nil
}

// CreateAutomaticFollowUp records a SENT follow-up initiated by the system
// and dispatches it.
func (e *Engine) CreateAutomaticFollowUp(ctx context.Context, onboarding domain.VendorOnboarding, followUpType domain.FollowUpType, message string, fields string) (domain.FollowUp, error) {
	if err := e.ready(); err != nil {
		return domain.FollowUp{}, err
	}
	var (
		created domain.FollowUp
		pending dispatch.Message
	)
	err := e.store.WithinTx(ctx, func(tx storage.Store) error {
		var err error
		created, pending, err = e.CreateAutomaticFollowUpTx(ctx, tx, onboarding, followUpType, message, fields)
		return err
	})
	if err != nil {
		return domain.FollowUp{}, err
	}
	e.Dispatch(pending)
	return created, nil
}

// CreateAutomaticFollowUpTx records a system follow-up inside the caller's
// unit of work. The returned message must be passed to Dispatch once the
// unit commits.
func (e *Engine) CreateAutomaticFollowUpTx(ctx context.Context, tx storage.Store, onboarding domain.VendorOnboarding, followUpType domain.FollowUpType, message string, fields string) (domain.FollowUp, dispatch.Message, error) {
	if err := e.ready(); err != nil {
		return domain.FollowUp{}, dispatch.Message{}, err
	}
	if tx == nil {
		return domain.FollowUp{}, dispatch.Message{}, domain.ErrStoreNotConfigured
	}
	if strings.TrimSpace(string(followUpType)) == "" {
		return domain.FollowUp{}, dispatch.Message{}, domain.InvalidInput("follow-up type is required", nil)
	}
	request, err := tx.GetRequest(ctx, onboarding.RequestID)
	if err != nil {
		return domain.FollowUp{}, dispatch.Message{}, notFound(err, "vendor_request", onboarding.RequestID)
	}
	return e.createSent(ctx, tx, onboarding, request, sentInput{
		Type:            followUpType,
		Message:         message,
		FieldsConcerned: fields,
		Initiator:       domain.InitiatorSystem,
		Automatic:       true,
	})
}

type sentInput struct {
	Type            domain.FollowUpType
	Message         string
	FieldsConcerned string
	Initiator       string
	Automatic       bool
}

func (e *Engine) createSent(ctx context.Context, tx storage.Store, onboarding domain.VendorOnboarding, request domain.VendorRequest, input sentInput) (domain.FollowUp, dispatch.Message, error) {
	if strings.TrimSpace(input.Message) == "" {
		return domain.FollowUp{}, dispatch.Message{}, domain.InvalidInput("follow-up message is required", nil)
	}
	id, err := e.newID()
	if err != nil {
		return domain.FollowUp{}, dispatch.Message{}, fmt.Errorf("generate follow-up id: %w", err)
	}
	now := e.clock().UTC()
	followUp := domain.FollowUp{
		ID:              id,
		OnboardingID:    onboarding.ID,
		Type:            input.Type,
		Message:         input.Message,
		FieldsConcerned: input.FieldsConcerned,
		InitiatedBy:     input.Initiator,
		IsAutomatic:     input.Automatic,
		Status:          domain.FollowUpSent,
		CreatedAt:       now,
		SentAt:          &now,
	}
	if err := tx.PutFollowUp(ctx, followUp); err != nil {
		return domain.FollowUp{}, dispatch.Message{}, fmt.Errorf("put follow-up: %w", err)
	}
	if err := e.recordCreated(ctx, tx, request.ID, followUp); err != nil {
		return domain.FollowUp{}, dispatch.Message{}, err
	}
	return followUp, messageFor(followUp, onboarding, request), nil
}

func (e *Engine) recordCreated(ctx context.Context, tx storage.Store, requestID string, followUp domain.FollowUp) error {
	_, err := e.recorder.Record(ctx, tx, activity.Entry{
		RequestID:   requestID,
		Type:        domain.ActivityFollowUpCreated,
		Description: "Follow-up created: " + followUp.Type.Description(),
		Details:     followUp.FieldsConcerned,
		Actor:       followUp.InitiatedBy,
	})
	return err
}

// Dispatch hands committed follow-up messages to the sender. Messages without
// a follow-up id are ignored.
func (e *Engine) Dispatch(messages ...dispatch.Message) {
	if e == nil || e.sender == nil {
		return
	}
	for _, message := range messages {
		if message.FollowUpID == "" {
			continue
		}
		e.sender.SendFollowUpMessage(message)
	}
}

// SendFollowUp moves a PENDING follow-up to SENT and dispatches it. A
// follow-up that is already SENT is returned unchanged.
func (e *Engine) SendFollowUp(ctx context.Context, id string) (domain.FollowUp, error) {
	if err := e.ready(); err != nil {
		return domain.FollowUp{}, err
	}
	var (
		followUp domain.FollowUp
		message  dispatch.Message
	)
	err := e.store.WithinTx(ctx, func(tx storage.Store) error {
		var err error
		followUp, err = getFollowUp(ctx, tx, id)
		if err != nil {
			return err
		}
		switch followUp.Status {
		case domain.FollowUpSent:
			return nil
		case domain.FollowUpResolved:
			return domain.InvalidInput("resolved follow-up cannot be sent", map[string]string{"id": followUp.ID})
		}
		now := e.clock().UTC()
		followUp.Status = domain.FollowUpSent
		followUp.SentAt = &now
		if err := tx.PutFollowUp(ctx, followUp); err != nil {
			return fmt.Errorf("put follow-up: %w", err)
		}
		message, err = loadMessage(ctx, tx, followUp)
		return err
	})
	if err != nil {
		return domain.FollowUp{}, err
	}
	e.Dispatch(message)
	return followUp, nil
}

// ResendFollowUp dispatches the stored message of an unresolved follow-up
// again. It is the only retry path for failed deliveries.
func (e *Engine) ResendFollowUp(ctx context.Context, id string) (domain.FollowUp, error) {
	if err := e.ready(); err != nil {
		return domain.FollowUp{}, err
	}
	followUp, err := getFollowUp(ctx, e.store, id)
	if err != nil {
		return domain.FollowUp{}, err
	}
	if followUp.Status == domain.FollowUpResolved {
		return domain.FollowUp{}, domain.InvalidInput("resolved follow-up cannot be resent", map[string]string{"id": followUp.ID})
	}
	message, err := loadMessage(ctx, e.store, followUp)
	if err != nil {
		return domain.FollowUp{}, err
	}
	e.Dispatch(message)
	return followUp, nil
}

// ResolveFollowUp marks a follow-up RESOLVED. Resolving twice keeps the
// first resolution time.
func (e *Engine) ResolveFollowUp(ctx context.Context, id string, actor string) (domain.FollowUp, error) {
	if err := e.ready(); err != nil {
		return domain.FollowUp{}, err
	}
	var resolved domain.FollowUp
	err := e.store.WithinTx(ctx, func(tx storage.Store) error {
		followUp, err := getFollowUp(ctx, tx, id)
		if err != nil {
			return err
		}
		if followUp.Status == domain.FollowUpResolved {
			resolved = followUp
			return nil
		}
		now := e.clock().UTC()
		followUp.Status = domain.FollowUpResolved
		followUp.ResolvedAt = &now
		if err := tx.PutFollowUp(ctx, followUp); err != nil {
			return fmt.Errorf("put follow-up: %w", err)
		}
		onboarding, err := tx.GetOnboarding(ctx, followUp.OnboardingID)
		if err != nil {
			return notFound(err, "vendor_onboarding", followUp.OnboardingID)
		}
		if _, err := e.recorder.Record(ctx, tx, activity.Entry{
			RequestID:   onboarding.RequestID,
			Type:        domain.ActivityFollowUpResolved,
			Description: "Follow-up resolved: " + followUp.Type.Description(),
			Actor:       actor,
		}); err != nil {
			return err
		}
		resolved = followUp
		return nil
	})
	if err != nil {
		return domain.FollowUp{}, err
	}
	return resolved, nil
}

// GetFollowUp returns one follow-up.
func (e *Engine) GetFollowUp(ctx context.Context, id string) (domain.FollowUp, error) {
	if err := e.ready(); err != nil {
		return domain.FollowUp{}, err
	}
	return getFollowUp(ctx, e.store, id)
}

// ListFollowUps returns follow-ups matching an AIP-160 filter expression,
// newest first. An empty filter lists everything up to limit.
func (e *Engine) ListFollowUps(ctx context.Context, rawFilter string, limit int) ([]domain.FollowUp, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cond, err := filter.ParseFollowUpFilter(rawFilter)
	if err != nil {
		return nil, domain.InvalidInput("invalid follow-up filter", map[string]string{"filter": rawFilter, "reason": err.Error()})
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return e.store.QueryFollowUps(ctx, cond, limit)
}

// ListFollowUpsByOnboarding returns the onboarding's follow-ups, newest first.
func (e *Engine) ListFollowUpsByOnboarding(ctx context.Context, onboardingID string) ([]domain.FollowUp, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.store.ListFollowUpsByOnboarding(ctx, onboardingID)
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if e.newID == nil {
		return fmt.Errorf("id generator is not configured")
	}
	return nil
}

func loadOnboarding(ctx context.Context, store storage.Store, onboardingID string) (domain.VendorOnboarding, domain.VendorRequest, error) {
	onboardingID = strings.TrimSpace(onboardingID)
	if onboardingID == "" {
		return domain.VendorOnboarding{}, domain.VendorRequest{}, domain.InvalidInput("onboarding id is required", nil)
	}
	onboarding, err := store.GetOnboarding(ctx, onboardingID)
	if err != nil {
		return domain.VendorOnboarding{}, domain.VendorRequest{}, notFound(err, "vendor_onboarding", onboardingID)
	}
	request, err := store.GetRequest(ctx, onboarding.RequestID)
	if err != nil {
		return domain.VendorOnboarding{}, domain.VendorRequest{}, notFound(err, "vendor_request", onboarding.RequestID)
	}
	return onboarding, request, nil
}

func getFollowUp(ctx context.Context, store storage.FollowUpStore, id string) (domain.FollowUp, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.FollowUp{}, domain.InvalidInput("follow-up id is required", nil)
	}
	followUp, err := store.GetFollowUp(ctx, id)
	if err != nil {
		return domain.FollowUp{}, notFound(err, "follow_up", id)
	}
	return followUp, nil
}

func loadMessage(ctx context.Context, store storage.Store, followUp domain.FollowUp) (dispatch.Message, error) {
	onboarding, request, err := loadOnboarding(ctx, store, followUp.OnboardingID)
	if err != nil {
		return dispatch.Message{}, err
	}
	return messageFor(followUp, onboarding, request), nil
}

// messageFor addresses the vendor through the submitted contact email when
// present, otherwise through the invitation email.
func messageFor(followUp domain.FollowUp, onboarding domain.VendorOnboarding, request domain.VendorRequest) dispatch.Message {
	email := request.VendorEmail
	if onboarding.Contact != nil && strings.TrimSpace(onboarding.Contact.EmailAddress) != "" {
		email = onboarding.Contact.EmailAddress
	}
	return dispatch.Message{
		FollowUpID:  followUp.ID,
		RequestID:   request.ID,
		Email:       email,
		VendorName:  request.VendorName,
		Body:        followUp.Message,
		Type:        followUp.Type,
		ResumeToken: request.InvitationToken,
	}
}

func notFound(err error, entity string, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NotFound(entity, id)
	}
	return err
}
