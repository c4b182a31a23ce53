package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

// Inbox serves a procurement user's notification list.
type Inbox struct {
	store storage.NotificationStore
	clock func() time.Time
}

// NewInbox builds an inbox service. A nil clock uses time.Now.
func NewInbox(store storage.NotificationStore, clock func() time.Time) *Inbox {
	if clock == nil {
		clock = time.Now
	}
	return &Inbox{store: store, clock: clock}
}

// List returns the recipient's notifications newest-first.
func (i *Inbox) List(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if i == nil || i.store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, domain.InvalidInput("recipient is required", nil)
	}
	return i.store.ListNotifications(ctx, recipient, unreadOnly, limit)
}

// CountUnread returns how many notifications the recipient has not read.
func (i *Inbox) CountUnread(ctx context.Context, recipient string) (int, error) {
	if i == nil || i.store == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	return i.store.CountUnreadNotifications(ctx, recipient)
}

// MarkRead marks one notification read.
func (i *Inbox) MarkRead(ctx context.Context, id string) (domain.Notification, error) {
	if i == nil || i.store == nil {
		return domain.Notification{}, domain.ErrStoreNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Notification{}, domain.InvalidInput("notification id is required", nil)
	}
	notification, err := i.store.MarkNotificationRead(ctx, id, i.clock().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Notification{}, domain.NotFound("notification", id)
		}
		return domain.Notification{}, err
	}
	return notification, nil
}

// MarkAllRead marks every unread notification of the recipient read and
// returns how many changed.
func (i *Inbox) MarkAllRead(ctx context.Context, recipient string) (int, error) {
	if i == nil || i.store == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return 0, domain.InvalidInput("recipient is required", nil)
	}
	return i.store.MarkAllNotificationsRead(ctx, recipient, i.clock().UTC())
}
