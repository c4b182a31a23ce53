package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	got, err := ParseStatus(" awaiting_validation ")
	if err != nil {
		t.Fatalf("parse status: %v", err)
	}
	if got != StatusAwaitingValidation {
		t.Fatalf("status = %q, want %q", got, StatusAwaitingValidation)
	}
	if _, err := ParseStatus("APPROVED"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestStatusesAreSevenAndValid(t *testing.T) {
	t.Parallel()

	statuses := Statuses()
	if len(statuses) != 7 {
		t.Fatalf("len(Statuses()) = %d, want 7", len(statuses))
	}
	for _, status := range statuses {
		if !status.Valid() {
			t.Fatalf("status %q reported invalid", status)
		}
		if status.DisplayName() == string(status) {
			t.Fatalf("status %q has no display name", status)
		}
	}
	if Status("ARCHIVED").Valid() {
		t.Fatal("unexpected valid status ARCHIVED")
	}
}

func TestParseFollowUpType(t *testing.T) {
	t.Parallel()

	got, err := ParseFollowUpType("clarification_needed")
	if err != nil {
		t.Fatalf("parse follow-up type: %v", err)
	}
	if got != FollowUpClarificationNeeded {
		t.Fatalf("type = %q", got)
	}
	if _, err := ParseFollowUpType("CALL_ME"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if got := FollowUpType("MANDATORY_FIELD").Description(); got != "MANDATORY_FIELD" {
		t.Fatalf("unknown type description = %q", got)
	}
}

func TestNotificationSeverity(t *testing.T) {
	t.Parallel()

	tests := map[NotificationType]string{
		NotificationRequestCreated:    "info",
		NotificationFormSubmitted:     "success",
		NotificationValidationPending: "warning",
		NotificationUnresponsive:      "error",
	}
	for notificationType, want := range tests {
		if got := notificationType.Severity(); got != want {
			t.Fatalf("%s severity = %q, want %q", notificationType, got, want)
		}
	}
}

func TestErrorConstructorsMatchSentinels(t *testing.T) {
	t.Parallel()

	if err := fmt.Errorf("load: %w", NotFound("vendor request", "req-1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found match, got %v", err)
	}
	if err := TemplateNotFound(FollowUpManual, 2); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected template not found match, got %v", err)
	}
	if errors.Is(NotFound("x", "y"), ErrConflict) {
		t.Fatal("not found must not match conflict")
	}
}

func TestInvitationExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(-time.Minute)
	request := VendorRequest{InvitationExpiresAt: &expires}
	if !request.InvitationExpired(now) {
		t.Fatal("expected expired invitation")
	}
	if (VendorRequest{}).InvitationExpired(now) {
		t.Fatal("request without expiry must not be expired")
	}
}

func TestDateOf(t *testing.T) {
	t.Parallel()

	got := DateOf(time.Date(2026, 3, 1, 23, 59, 0, 0, time.FixedZone("x", -3*3600)))
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DateOf = %s, want %s", got, want)
	}
}
