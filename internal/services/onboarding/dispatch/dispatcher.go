// Package dispatch hands follow-up messages to the vendor mail outbox outside
// the unit of work that created them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/vendorflow/internal/platform/timeouts"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/activity"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/render"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

var errMissingRecipient = errors.New("vendor email is missing")

// Message is one follow-up ready for delivery.
type Message struct {
	FollowUpID  string
	RequestID   string
	Email       string
	VendorName  string
	Body        string
	Type        domain.FollowUpType
	ResumeToken string
}

// Sender delivers follow-up messages without blocking the caller.
type Sender interface {
	SendFollowUpMessage(msg Message)
}

// Dispatcher renders follow-up emails into the outbox. Delivery failures are
// recorded on the outbox row and logged; they never surface to the caller of
// SendFollowUpMessage.
type Dispatcher struct {
	store    storage.Store
	company  render.Company
	recorder *activity.Recorder
	clock    func() time.Time
	newID    func() (string, error)
	timeout  time.Duration
	logf     func(string, ...any)
	wg       sync.WaitGroup
}

// NewDispatcher builds a dispatcher. A nil clock uses time.Now.
func NewDispatcher(store storage.Store, company render.Company, clock func() time.Time, newID func() (string, error)) *Dispatcher {
	if clock == nil {
		clock = time.Now
	}
	return &Dispatcher{
		store:    store,
		company:  company,
		recorder: activity.NewRecorder(clock, newID),
		clock:    clock,
		newID:    newID,
		timeout:  timeouts.Dispatch,
		logf:     log.Printf,
	}
}

// SetLogger replaces the logger used for delivery failures.
func (d *Dispatcher) SetLogger(logf func(string, ...any)) {
	if d == nil || logf == nil {
		return
	}
	d.logf = logf
}

// SetTimeout overrides the per-message delivery budget.
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	if d == nil || timeout <= 0 {
		return
	}
	d.timeout = timeout
}

// SendFollowUpMessage delivers msg in the background with its own deadline.
func (d *Dispatcher) SendFollowUpMessage(msg Message) {
	if d == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.Deliver(ctx, msg); err != nil {
			d.logf("follow-up dispatch failed follow_up=%s err=%v", msg.FollowUpID, err)
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// Deliver renders msg, writes an outbox row and flags the follow-up as
// emailed. A message that cannot be rendered or addressed is stored as a
// FAILED outbox row and the cause is returned.
func (d *Dispatcher) Deliver(ctx context.Context, msg Message) error {
	if d == nil || d.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if strings.TrimSpace(msg.FollowUpID) == "" {
		return domain.InvalidInput("follow-up id is required", nil)
	}
	if d.newID == nil {
		return fmt.Errorf("id generator is not configured")
	}
	outboxID, err := d.newID()
	if err != nil {
		return fmt.Errorf("generate outbox id: %w", err)
	}
	now := d.clock().UTC()

	email, renderErr := RenderEmail(ctx, msg, d.company)
	if renderErr == nil && strings.TrimSpace(msg.Email) == "" {
		renderErr = errMissingRecipient
	}
	row := domain.OutboundEmail{
		ID:           outboxID,
		FollowUpID:   msg.FollowUpID,
		Recipient:    strings.TrimSpace(msg.Email),
		Subject:      email.Subject,
		HTMLBody:     email.HTMLBody,
		TextBody:     email.TextBody,
		ResumeToken:  msg.ResumeToken,
		FollowUpType: msg.Type,
		Status:       domain.OutboundEmailQueued,
		CreatedAt:    now,
	}
	if renderErr != nil {
		row.Status = domain.OutboundEmailFailed
		row.Error = renderErr.Error()
		if err := d.store.PutOutboundEmail(ctx, row); err != nil {
			return fmt.Errorf("put failed outbound email: %w", err)
		}
		return renderErr
	}

	return d.store.WithinTx(ctx, func(tx storage.Store) error {
		if err := tx.PutOutboundEmail(ctx, row); err != nil {
			return fmt.Errorf("put outbound email: %w", err)
		}
		followUp, err := tx.GetFollowUp(ctx, msg.FollowUpID)
		if err != nil {
			return fmt.Errorf("get follow-up: %w", err)
		}
		followUp.EmailSent = true
		followUp.EmailSentAt = &now
		if err := tx.PutFollowUp(ctx, followUp); err != nil {
			return fmt.Errorf("put follow-up: %w", err)
		}
		if msg.RequestID == "" {
			return nil
		}
		_, err = d.recorder.Record(ctx, tx, activity.Entry{
			RequestID:   msg.RequestID,
			Type:        domain.ActivityEmailSent,
			Description: "Follow-up email sent to " + row.Recipient,
			Details:     email.Subject,
		})
		return err
	})
}
