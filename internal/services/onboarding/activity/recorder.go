// Package activity appends entries to a vendor request's audit trail.
package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

// Entry is one audit record to append.
type Entry struct {
	RequestID   string
	Type        domain.ActivityType
	Description string
	Details     string
	Actor       string
}

// Recorder writes audit entries through the caller's unit of work.
type Recorder struct {
	clock func() time.Time
	newID func() (string, error)
}

// NewRecorder builds a recorder. A nil clock uses time.Now.
func NewRecorder(clock func() time.Time, newID func() (string, error)) *Recorder {
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{clock: clock, newID: newID}
}

// Record appends one entry. An empty actor is recorded as SYSTEM.
func (r *Recorder) Record(ctx context.Context, store storage.ActivityStore, entry Entry) (domain.ActivityEntry, error) {
	if r == nil {
		return domain.ActivityEntry{}, fmt.Errorf("activity recorder is not configured")
	}
	if store == nil {
		return domain.ActivityEntry{}, domain.ErrStoreNotConfigured
	}
	if strings.TrimSpace(entry.RequestID) == "" {
		return domain.ActivityEntry{}, domain.InvalidInput("request id is required", nil)
	}
	if r.newID == nil {
		return domain.ActivityEntry{}, fmt.Errorf("id generator is not configured")
	}
	id, err := r.newID()
	if err != nil {
		return domain.ActivityEntry{}, fmt.Errorf("generate activity id: %w", err)
	}
	actor := strings.TrimSpace(entry.Actor)
	if actor == "" {
		actor = domain.InitiatorSystem
	}

	record := domain.ActivityEntry{
		ID:          id,
		RequestID:   entry.RequestID,
		Type:        entry.Type,
		Description: entry.Description,
		Details:     entry.Details,
		PerformedBy: actor,
		PerformedAt: r.clock().UTC(),
	}
	if err := store.PutActivity(ctx, record); err != nil {
		return domain.ActivityEntry{}, fmt.Errorf("put activity: %w", err)
	}
	return record, nil
}
