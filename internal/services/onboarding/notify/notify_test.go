package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

type fakeNotificationStore struct {
	mu    sync.Mutex
	items map[string]domain.Notification
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{items: map[string]domain.Notification{}}
}

func (s *fakeNotificationStore) PutNotification(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[n.ID] = n
	return nil
}

func (s *fakeNotificationStore) GetNotification(_ context.Context, id string) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok {
		return domain.Notification{}, storage.ErrNotFound
	}
	return n, nil
}

func (s *fakeNotificationStore) ListNotifications(_ context.Context, recipient string, unreadOnly bool, _ int) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Notification{}
	for _, n := range s.items {
		if n.Recipient == recipient && (!unreadOnly || !n.Read()) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeNotificationStore) CountUnreadNotifications(ctx context.Context, recipient string) (int, error) {
	list, err := s.ListNotifications(ctx, recipient, true, 0)
	return len(list), err
}

func (s *fakeNotificationStore) MarkNotificationRead(_ context.Context, id string, readAt time.Time) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok {
		return domain.Notification{}, storage.ErrNotFound
	}
	if n.ReadAt == nil {
		n.ReadAt = &readAt
		s.items[id] = n
	}
	return n, nil
}

func (s *fakeNotificationStore) MarkAllNotificationsRead(_ context.Context, recipient string, readAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, n := range s.items {
		if n.Recipient == recipient && n.ReadAt == nil {
			n.ReadAt = &readAt
			s.items[id] = n
			count++
		}
	}
	return count, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, n domain.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, n.ID)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDGenerator(prefix string) func() (string, error) {
	var mu sync.Mutex
	next := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("%s-%d", prefix, next), nil
	}
}

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

var acme = domain.VendorRequest{
	ID:          "req-1",
	VendorName:  "Acme",
	VendorEmail: "ops@acme.com",
	CreatedBy:   "alice",
}

func TestEnglishCopy(t *testing.T) {
	t.Parallel()

	loc := NewLocalizer("en")
	tests := []struct {
		content   Content
		wantTitle string
		wantBody  string
	}{
		{RequestCreated(loc, acme), "Vendor Request Created", "New vendor request from Acme (ops@acme.com)"},
		{FormSubmitted(loc, acme), "Form Submitted", "Vendor Acme has submitted the onboarding form"},
		{StatusChanged(loc, acme, domain.StatusRequested, domain.StatusAwaitingValidation), "Status Changed", "Vendor Acme status changed from Requested to Waiting for validation"},
		{ValidationPending(loc, acme), "Validation Required", "Vendor Acme is awaiting validation. Please review."},
		{MissingData(loc, acme, "emailAddress, phoneNumber"), "Missing Data", "Vendor Acme has missing data: emailAddress, phoneNumber"},
		{Unresponsive(loc, acme, 3, 5), "Vendor Unresponsive - Action Required", "Vendor Acme has been unresponsive. 3 follow-up(s) sent with no response for 5 days. Please review and take appropriate action."},
	}
	for _, tc := range tests {
		if tc.content.Title != tc.wantTitle {
			t.Fatalf("title = %q, want %q", tc.content.Title, tc.wantTitle)
		}
		if tc.content.Message != tc.wantBody {
			t.Fatalf("message = %q, want %q", tc.content.Message, tc.wantBody)
		}
	}
}

func TestPortugueseCopyAndFallback(t *testing.T) {
	t.Parallel()

	content := FormSubmitted(NewLocalizer("pt-BR"), acme)
	if content.Title != "Formulário enviado" {
		t.Fatalf("pt-BR title = %q", content.Title)
	}
	fallback := FormSubmitted(NewLocalizer("not a tag!"), acme)
	if fallback.Title != "Form Submitted" {
		t.Fatalf("fallback title = %q", fallback.Title)
	}
	nilLoc := FormSubmitted(nil, acme)
	if nilLoc.Title != "Form Submitted" {
		t.Fatalf("nil localizer title = %q", nilLoc.Title)
	}
}

func TestEmitStoresNotificationForCreator(t *testing.T) {
	t.Parallel()

	store := newFakeNotificationStore()
	emitter := NewEmitter(NewLocalizer("en"), fixedClock(now), sequentialIDGenerator("note"))

	notification, err := emitter.Emit(context.Background(), store, acme, ValidationPending(emitter.Localizer(), acme))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if notification.ID != "note-1" || notification.Recipient != "alice" || notification.ActionURL != "/vendors/req-1" {
		t.Fatalf("notification = %+v", notification)
	}
	if notification.Type.Severity() != "warning" {
		t.Fatalf("severity = %q, want warning", notification.Type.Severity())
	}
	if _, err := store.GetNotification(context.Background(), "note-1"); err != nil {
		t.Fatalf("stored notification: %v", err)
	}

	anonymous := acme
	anonymous.CreatedBy = " "
	skipped, err := emitter.Emit(context.Background(), store, anonymous, FormSubmitted(nil, anonymous))
	if err != nil {
		t.Fatalf("emit without creator: %v", err)
	}
	if skipped.ID != "" {
		t.Fatalf("notification without creator = %+v, want zero", skipped)
	}
}

func TestMirrorForwardsAndLogsFailures(t *testing.T) {
	t.Parallel()

	publisher := &recordingPublisher{}
	mirror := NewMirror(publisher, time.Second)
	mirror.Forward(domain.Notification{ID: "n-1"}, domain.Notification{}, domain.Notification{ID: "n-2"})
	mirror.Wait()
	sort.Strings(publisher.published)
	if strings.Join(publisher.published, ",") != "n-1,n-2" {
		t.Fatalf("published = %v", publisher.published)
	}

	var mu sync.Mutex
	var logged []string
	failing := NewMirror(&recordingPublisher{err: errors.New("broker down")}, time.Second)
	failing.SetLogger(func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		logged = append(logged, fmt.Sprintf(format, args...))
	})
	failing.Forward(domain.Notification{ID: "n-3"})
	failing.Wait()
	if len(logged) != 1 || !strings.Contains(logged[0], "broker down") {
		t.Fatalf("logged = %v", logged)
	}

	var disabled *Mirror
	disabled.Forward(domain.Notification{ID: "n-4"})
	disabled.Wait()
	NewMirror(nil, 0).Forward(domain.Notification{ID: "n-5"})
}

func TestInboxReadState(t *testing.T) {
	t.Parallel()

	store := newFakeNotificationStore()
	for i, id := range []string{"n-1", "n-2"} {
		_ = store.PutNotification(context.Background(), domain.Notification{
			ID:        id,
			Recipient: "alice",
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
	}
	inbox := NewInbox(store, fixedClock(now.Add(time.Hour)))

	list, err := inbox.List(context.Background(), "alice", false, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "n-2" {
		t.Fatalf("list = %+v", list)
	}
	read, err := inbox.MarkRead(context.Background(), "n-1")
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if read.ReadAt == nil || !read.ReadAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("read at = %v", read.ReadAt)
	}
	if _, err := inbox.MarkRead(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("mark missing error = %v, want not found", err)
	}
	unread, err := inbox.CountUnread(context.Background(), "alice")
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 1 {
		t.Fatalf("unread = %d, want 1", unread)
	}
	marked, err := inbox.MarkAllRead(context.Background(), "alice")
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if marked != 1 {
		t.Fatalf("marked = %d, want 1", marked)
	}
	if _, err := inbox.List(context.Background(), " ", false, 10); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank recipient error = %v, want invalid input", err)
	}
}
