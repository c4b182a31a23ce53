package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

type fakeActivityStore struct {
	entries []domain.ActivityEntry
}

func (s *fakeActivityStore) PutActivity(_ context.Context, entry domain.ActivityEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeActivityStore) ListActivity(_ context.Context, requestID string) ([]domain.ActivityEntry, error) {
	out := []domain.ActivityEntry{}
	for _, entry := range s.entries {
		if entry.RequestID == requestID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func TestRecordDefaultsActorToSystem(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeActivityStore{}
	recorder := NewRecorder(func() time.Time { return now }, func() (string, error) { return "act-1", nil })

	entry, err := recorder.Record(context.Background(), store, Entry{
		RequestID:   "req-1",
		Type:        domain.ActivityFormSubmitted,
		Description: "Vendor submitted the onboarding form",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if entry.ID != "act-1" || entry.PerformedBy != domain.InitiatorSystem || !entry.PerformedAt.Equal(now) {
		t.Fatalf("entry = %+v", entry)
	}
	if len(store.entries) != 1 {
		t.Fatalf("stored entries = %d, want 1", len(store.entries))
	}
}

func TestRecordRequiresRequestID(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder(nil, func() (string, error) { return "act-1", nil })
	if _, err := recorder.Record(context.Background(), &fakeActivityStore{}, Entry{Type: domain.ActivityLinkOpened}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("record error = %v, want invalid input", err)
	}
	if _, err := recorder.Record(context.Background(), nil, Entry{RequestID: "req-1"}); !errors.Is(err, domain.ErrStoreNotConfigured) {
		t.Fatalf("record without store error = %v", err)
	}
}
