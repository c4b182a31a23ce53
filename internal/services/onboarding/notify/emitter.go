// Package notify records procurement notifications and mirrors committed ones
// to an external sink.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/vendorflow/internal/platform/timeouts"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

// Emitter writes notifications through the caller's unit of work so a rolled
// back operation leaves no notification behind.
type Emitter struct {
	loc   Localizer
	clock func() time.Time
	newID func() (string, error)
}

// NewEmitter builds an emitter. A nil clock uses time.Now.
func NewEmitter(loc Localizer, clock func() time.Time, newID func() (string, error)) *Emitter {
	if clock == nil {
		clock = time.Now
	}
	return &Emitter{loc: loc, clock: clock, newID: newID}
}

// Localizer returns the printer used for notification copy.
func (e *Emitter) Localizer() Localizer {
	if e == nil {
		return nil
	}
	return e.loc
}

// Emit stores one notification addressed to the request's creator. Requests
// without a creator have nobody to notify; the zero notification is returned.
func (e *Emitter) Emit(ctx context.Context, store storage.NotificationStore, request domain.VendorRequest, content Content) (domain.Notification, error) {
	if e == nil {
		return domain.Notification{}, fmt.Errorf("notification emitter is not configured")
	}
	if store == nil {
		return domain.Notification{}, domain.ErrStoreNotConfigured
	}
	recipient := strings.TrimSpace(request.CreatedBy)
	if recipient == "" {
		return domain.Notification{}, nil
	}
	if e.newID == nil {
		return domain.Notification{}, fmt.Errorf("id generator is not configured")
	}
	id, err := e.newID()
	if err != nil {
		return domain.Notification{}, fmt.Errorf("generate notification id: %w", err)
	}

	notification := domain.Notification{
		ID:        id,
		Recipient: recipient,
		Type:      content.Type,
		Title:     content.Title,
		Message:   content.Message,
		RequestID: request.ID,
		ActionURL: ActionURL(request.ID),
		CreatedAt: e.clock().UTC(),
	}
	if err := store.PutNotification(ctx, notification); err != nil {
		return domain.Notification{}, fmt.Errorf("put notification: %w", err)
	}
	return notification, nil
}

// Publisher delivers a committed notification to an external sink.
type Publisher interface {
	Publish(ctx context.Context, notification domain.Notification) error
}

// Mirror forwards committed notifications to a Publisher without blocking
// the caller. Failures are logged and dropped.
type Mirror struct {
	publisher Publisher
	timeout   time.Duration
	logf      func(string, ...any)
	wg        sync.WaitGroup
}

// NewMirror builds a mirror. A nil publisher makes every call a no-op.
func NewMirror(publisher Publisher, timeout time.Duration) *Mirror {
	if timeout <= 0 {
		timeout = timeouts.Publish
	}
	return &Mirror{publisher: publisher, timeout: timeout, logf: log.Printf}
}

// SetLogger replaces the logger used for publish failures.
func (m *Mirror) SetLogger(logf func(string, ...any)) {
	if m == nil || logf == nil {
		return
	}
	m.logf = logf
}

// Forward publishes notifications in the background.
func (m *Mirror) Forward(notifications ...domain.Notification) {
	if m == nil || m.publisher == nil {
		return
	}
	for _, notification := range notifications {
		if notification.ID == "" {
			continue
		}
		m.wg.Add(1)
		go func(notification domain.Notification) {
			defer m.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
			defer cancel()
			if err := m.publisher.Publish(ctx, notification); err != nil {
				m.logf("notification mirror failed id=%s type=%s err=%v", notification.ID, notification.Type, err)
			}
		}(notification)
	}
}

// Wait blocks until in-flight publishes finish.
func (m *Mirror) Wait() {
	if m == nil {
		return
	}
	m.wg.Wait()
}
