package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/filter"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenAppliesConnectionPragmas(t *testing.T) {
	t.Parallel()
	store := openTempStore(t)

	var busyTimeout int
	if err := store.sqlDB.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("read busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Fatalf("busy_timeout = %d, want 5000", busyTimeout)
	}
	var journalMode string
	if err := store.sqlDB.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", journalMode)
	}
}

func TestNilStoreIsNotConfigured(t *testing.T) {
	t.Parallel()

	var store *Store
	_, err := store.GetRequest(context.Background(), "req-1")
	if !errors.Is(err, domain.ErrStoreNotConfigured) {
		t.Fatalf("get request on nil store error = %v, want ErrStoreNotConfigured", err)
	}
}

func TestRequestsPutGetListAndConflict(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	active := seedRequest(t, store, "req-1", "acme@example.com", baseTime)
	deleted := newRequest("req-2", "globex@example.com", baseTime.Add(time.Hour))
	deleted.Status = domain.StatusDeleted
	deleted.DeletedAt = ptrTime(baseTime.Add(2 * time.Hour))
	if err := store.PutRequest(ctx, deleted); err != nil {
		t.Fatalf("put deleted request: %v", err)
	}

	got, err := store.GetRequestByEmail(ctx, "acme@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != active.ID || got.VendorName != active.VendorName {
		t.Fatalf("get by email = %+v", got)
	}
	if got.InvitationExpiresAt == nil || !got.InvitationExpiresAt.Equal(*active.InvitationExpiresAt) {
		t.Fatalf("invitation expiry = %v, want %v", got.InvitationExpiresAt, active.InvitationExpiresAt)
	}

	byToken, err := store.GetRequestByToken(ctx, active.InvitationToken)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if byToken.ID != active.ID {
		t.Fatalf("get by token id = %q", byToken.ID)
	}

	if _, err := store.GetRequest(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetRequestByToken(ctx, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get empty token error = %v, want domain not found", err)
	}

	activeList, err := store.ListRequests(ctx, storage.RequestFilter{})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(activeList) != 1 || activeList[0].ID != "req-1" {
		t.Fatalf("active list = %+v", activeList)
	}
	deletedList, err := store.ListRequests(ctx, storage.RequestFilter{Deleted: true})
	if err != nil {
		t.Fatalf("list deleted: %v", err)
	}
	if len(deletedList) != 1 || deletedList[0].ID != "req-2" || !deletedList[0].IsDeleted() {
		t.Fatalf("deleted list = %+v", deletedList)
	}
	byStatus, err := store.ListRequests(ctx, storage.RequestFilter{Status: domain.StatusMissingData})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(byStatus) != 0 {
		t.Fatalf("list by status = %+v, want empty", byStatus)
	}

	duplicate := newRequest("req-3", "acme@example.com", baseTime)
	if err := store.PutRequest(ctx, duplicate); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate email error = %v, want ErrConflict", err)
	}
	if !errors.Is(storage.ErrConflict, domain.ErrConflict) {
		t.Fatal("storage conflict must match domain conflict")
	}
}

func TestOnboardingSectionsRoundTripAndUniquePerRequest(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	seedRequest(t, store, "req-1", "acme@example.com", baseTime)

	year := 2010
	expiry := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	onboarding := domain.VendorOnboarding{
		ID:        "onb-1",
		RequestID: "req-1",
		Business:  &domain.BusinessDetails{LegalBusinessName: "Acme LLC", YearEstablished: &year},
		Compliance: &domain.ComplianceDetails{
			TaxIdentificationNumber: "TIN-1",
			InsuranceExpiryDate:     &expiry,
		},
		IsComplete:  true,
		SubmittedAt: ptrTime(baseTime),
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
	if err := store.PutOnboarding(ctx, onboarding); err != nil {
		t.Fatalf("put onboarding: %v", err)
	}

	got, err := store.GetOnboardingByRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("get onboarding by request: %v", err)
	}
	if got.Business == nil || got.Business.LegalBusinessName != "Acme LLC" || got.Business.YearEstablished == nil || *got.Business.YearEstablished != 2010 {
		t.Fatalf("business = %+v", got.Business)
	}
	if got.Contact != nil || got.Banking != nil {
		t.Fatalf("absent sections must stay nil: contact=%v banking=%v", got.Contact, got.Banking)
	}
	if got.Compliance == nil || got.Compliance.InsuranceExpiryDate == nil || !got.Compliance.InsuranceExpiryDate.Equal(expiry) {
		t.Fatalf("compliance = %+v", got.Compliance)
	}
	if !got.IsComplete || got.SubmittedAt == nil {
		t.Fatalf("completion = %v submittedAt = %v", got.IsComplete, got.SubmittedAt)
	}

	second := onboarding
	second.ID = "onb-2"
	if err := store.PutOnboarding(ctx, second); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("second onboarding error = %v, want ErrConflict", err)
	}

	orphan := onboarding
	orphan.ID = "onb-3"
	orphan.RequestID = "missing"
	if err := store.PutOnboarding(ctx, orphan); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("orphan onboarding error = %v, want ErrNotFound", err)
	}
}

func TestIssuesListByStatus(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	seedOnboarding(t, store, "req-1", "onb-1")

	for i, status := range []domain.IssueStatus{domain.IssueOpen, domain.IssueResolved, domain.IssueOpen} {
		issue := domain.ValidationIssue{
			ID:             "issue-" + string(rune('a'+i)),
			OnboardingID:   "onb-1",
			IssueType:      domain.IssueTypeMissingData,
			FieldName:      "field",
			Severity:       domain.SeverityCritical,
			Status:         status,
			ValidationRule: "MANDATORY_FIELD",
			CreatedAt:      baseTime.Add(time.Duration(i) * time.Minute),
		}
		if status == domain.IssueResolved {
			issue.ResolvedAt = ptrTime(baseTime.Add(time.Hour))
			issue.ResolvedBy = "alice"
		}
		if err := store.PutIssue(ctx, issue); err != nil {
			t.Fatalf("put issue: %v", err)
		}
	}

	open, err := store.ListIssues(ctx, "onb-1", domain.IssueOpen)
	if err != nil {
		t.Fatalf("list open issues: %v", err)
	}
	if len(open) != 2 || open[0].ID != "issue-a" || open[1].ID != "issue-c" {
		t.Fatalf("open issues = %+v", open)
	}
	all, err := store.ListIssues(ctx, "onb-1", "")
	if err != nil {
		t.Fatalf("list all issues: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all issues = %d, want 3", len(all))
	}
	resolved, err := store.GetIssue(ctx, "issue-b")
	if err != nil {
		t.Fatalf("get issue: %v", err)
	}
	if resolved.ResolvedAt == nil || resolved.ResolvedBy != "alice" {
		t.Fatalf("resolved issue = %+v", resolved)
	}
}

func TestFollowUpAggregates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	seedOnboarding(t, store, "req-1", "onb-1")
	seedOnboarding(t, store, "req-2", "onb-2")

	putFollowUp := func(id, onboardingID string, status domain.FollowUpStatus, level int, createdAt time.Time) {
		t.Helper()
		if err := store.PutFollowUp(ctx, domain.FollowUp{
			ID:              id,
			OnboardingID:    onboardingID,
			Type:            domain.FollowUpMissingData,
			Status:          status,
			EscalationLevel: level,
			InitiatedBy:     domain.InitiatorSystem,
			IsAutomatic:     true,
			CreatedAt:       createdAt,
		}); err != nil {
			t.Fatalf("put follow-up %s: %v", id, err)
		}
	}
	old := baseTime.AddDate(0, 0, -5)
	putFollowUp("fu-1", "onb-1", domain.FollowUpSent, 0, old)
	putFollowUp("fu-2", "onb-1", domain.FollowUpPending, 1, old.Add(time.Hour))
	putFollowUp("fu-3", "onb-2", domain.FollowUpSent, 0, old)
	putFollowUp("fu-4", "onb-2", domain.FollowUpResolved, 0, old.Add(time.Hour))
	putFollowUp("fu-5", "onb-2", domain.FollowUpSent, 0, baseTime)

	cutoff := baseTime.AddDate(0, 0, -3)
	ids, err := store.ListUnresponsiveOnboardingIDs(ctx, domain.UnresolvedFollowUpStatuses(), cutoff, 2)
	if err != nil {
		t.Fatalf("list unresponsive: %v", err)
	}
	if len(ids) != 1 || ids[0] != "onb-1" {
		t.Fatalf("unresponsive ids = %v, want [onb-1]", ids)
	}

	count, err := store.CountFollowUps(ctx, "onb-2", domain.UnresolvedFollowUpStatuses())
	if err != nil {
		t.Fatalf("count follow-ups: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	latest, err := store.LatestFollowUp(ctx, "onb-2")
	if err != nil {
		t.Fatalf("latest follow-up: %v", err)
	}
	if latest.ID != "fu-5" {
		t.Fatalf("latest = %q, want fu-5", latest.ID)
	}

	level, err := store.MaxEscalationLevel(ctx, "onb-1", domain.FollowUpMissingData)
	if err != nil {
		t.Fatalf("max escalation level: %v", err)
	}
	if level != 1 {
		t.Fatalf("max level = %d, want 1", level)
	}
	none, err := store.MaxEscalationLevel(ctx, "onb-1", domain.FollowUpUnresponsive)
	if err != nil {
		t.Fatalf("max escalation level without rows: %v", err)
	}
	if none != -1 {
		t.Fatalf("max level without rows = %d, want -1", none)
	}

	cond, err := filter.ParseFollowUpFilter(`onboarding_id = "onb-2" AND status = "SENT"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	matched, err := store.QueryFollowUps(ctx, cond, 10)
	if err != nil {
		t.Fatalf("query follow-ups: %v", err)
	}
	if len(matched) != 2 || matched[0].ID != "fu-5" || matched[1].ID != "fu-3" {
		t.Fatalf("query follow-ups = %+v", matched)
	}
}

func TestActiveTemplateLookup(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for _, template := range []domain.Template{
		{ID: "tpl-1", Name: "Missing", Type: domain.FollowUpMissingData, EscalationLevel: 0, BodyTemplate: "a", Active: true, CreatedAt: baseTime, UpdatedAt: baseTime},
		{ID: "tpl-2", Name: "Missing old", Type: domain.FollowUpMissingData, EscalationLevel: 1, BodyTemplate: "b", Active: false, CreatedAt: baseTime, UpdatedAt: baseTime},
	} {
		if err := store.PutTemplate(ctx, template); err != nil {
			t.Fatalf("put template: %v", err)
		}
	}

	got, err := store.GetActiveTemplate(ctx, domain.FollowUpMissingData, 0)
	if err != nil {
		t.Fatalf("get active template: %v", err)
	}
	if got.ID != "tpl-1" {
		t.Fatalf("active template = %q", got.ID)
	}
	if _, err := store.GetActiveTemplate(ctx, domain.FollowUpMissingData, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("inactive template error = %v, want ErrNotFound", err)
	}
	active, err := store.ListTemplates(ctx, true)
	if err != nil {
		t.Fatalf("list active templates: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active templates = %d, want 1", len(active))
	}
}

func TestNotificationsReadState(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for i, id := range []string{"n-1", "n-2", "n-3"} {
		recipient := "alice"
		if id == "n-3" {
			recipient = "bob"
		}
		if err := store.PutNotification(ctx, domain.Notification{
			ID:        id,
			Recipient: recipient,
			Type:      domain.NotificationStatusChanged,
			Title:     "Status Changed",
			Message:   "msg",
			CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("put notification: %v", err)
		}
	}

	unread, err := store.CountUnreadNotifications(ctx, "alice")
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 2 {
		t.Fatalf("unread = %d, want 2", unread)
	}

	read, err := store.MarkNotificationRead(ctx, "n-1", baseTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !read.Read() {
		t.Fatal("expected notification to be read")
	}
	again, err := store.MarkNotificationRead(ctx, "n-1", baseTime.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	if !again.ReadAt.Equal(baseTime.Add(time.Hour)) {
		t.Fatalf("read at = %v, want first read time", again.ReadAt)
	}

	list, err := store.ListNotifications(ctx, "alice", true, 10)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(list) != 1 || list[0].ID != "n-2" {
		t.Fatalf("unread list = %+v", list)
	}

	marked, err := store.MarkAllNotificationsRead(ctx, "alice", baseTime.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if marked != 1 {
		t.Fatalf("marked = %d, want 1", marked)
	}
	bobUnread, err := store.CountUnreadNotifications(ctx, "bob")
	if err != nil {
		t.Fatalf("count bob unread: %v", err)
	}
	if bobUnread != 1 {
		t.Fatalf("bob unread = %d, want 1", bobUnread)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx storage.Store) error {
		if err := tx.PutRequest(ctx, newRequest("req-1", "acme@example.com", baseTime)); err != nil {
			return err
		}
		return tx.WithinTx(ctx, func(nested storage.Store) error {
			if err := nested.PutActivity(ctx, domain.ActivityEntry{
				ID:          "act-1",
				RequestID:   "req-1",
				Type:        domain.ActivityRequestCreated,
				PerformedAt: baseTime,
			}); err != nil {
				return err
			}
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("within tx error = %v, want boom", err)
	}
	if _, err := store.GetRequest(ctx, "req-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("rolled back request error = %v, want ErrNotFound", err)
	}
	entries, err := store.ListActivity(ctx, "req-1")
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("activity after rollback = %d, want 0", len(entries))
	}

	if err := store.WithinTx(ctx, func(tx storage.Store) error {
		return tx.PutRequest(ctx, newRequest("req-1", "acme@example.com", baseTime))
	}); err != nil {
		t.Fatalf("commit tx: %v", err)
	}
	if _, err := store.GetRequest(ctx, "req-1"); err != nil {
		t.Fatalf("committed request: %v", err)
	}
}

func TestActivityAndOutboxListing(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for i, activityType := range []domain.ActivityType{domain.ActivityRequestCreated, domain.ActivityInvitationSent} {
		if err := store.PutActivity(ctx, domain.ActivityEntry{
			ID:          "act-" + string(activityType),
			RequestID:   "req-1",
			Type:        activityType,
			PerformedBy: "alice",
			PerformedAt: baseTime.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("put activity: %v", err)
		}
	}
	entries, err := store.ListActivity(ctx, "req-1")
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 2 || entries[0].Type != domain.ActivityInvitationSent {
		t.Fatalf("activity = %+v", entries)
	}

	if err := store.PutOutboundEmail(ctx, domain.OutboundEmail{
		ID:           "mail-1",
		FollowUpID:   "fu-1",
		Recipient:    "acme@example.com",
		Subject:      "Action needed",
		TextBody:     "body",
		FollowUpType: domain.FollowUpMissingData,
		Status:       domain.OutboundEmailQueued,
		CreatedAt:    baseTime,
	}); err != nil {
		t.Fatalf("put outbound email: %v", err)
	}
	emails, err := store.ListOutboundEmails(ctx, "fu-1")
	if err != nil {
		t.Fatalf("list outbound emails: %v", err)
	}
	if len(emails) != 1 || emails[0].Status != domain.OutboundEmailQueued {
		t.Fatalf("outbound emails = %+v", emails)
	}
}

func newRequest(id, email string, createdAt time.Time) domain.VendorRequest {
	return domain.VendorRequest{
		ID:                  id,
		VendorName:          "Vendor " + id,
		VendorEmail:         email,
		ContactPerson:       "Jane",
		Status:              domain.StatusRequested,
		InvitationToken:     "token-" + id,
		InvitationSentAt:    ptrTime(createdAt),
		InvitationExpiresAt: ptrTime(createdAt.Add(7 * 24 * time.Hour)),
		CreatedBy:           "alice",
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
	}
}

func seedRequest(t *testing.T, store *Store, id, email string, createdAt time.Time) domain.VendorRequest {
	t.Helper()
	request := newRequest(id, email, createdAt)
	if err := store.PutRequest(context.Background(), request); err != nil {
		t.Fatalf("put request %s: %v", id, err)
	}
	return request
}

func seedOnboarding(t *testing.T, store *Store, requestID, onboardingID string) {
	t.Helper()
	seedRequest(t, store, requestID, requestID+"@example.com", baseTime)
	if err := store.PutOnboarding(context.Background(), domain.VendorOnboarding{
		ID:        onboardingID,
		RequestID: requestID,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}); err != nil {
		t.Fatalf("put onboarding %s: %v", onboardingID, err)
	}
}

func ptrTime(value time.Time) *time.Time {
	v := value.UTC()
	return &v
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	storePath := filepath.Join(t.TempDir(), "onboarding.db")
	store, err := Open(storePath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Fatalf("close store: %v", closeErr)
		}
	})
	return store
}
