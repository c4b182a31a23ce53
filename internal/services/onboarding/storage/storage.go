// Package storage defines the persistence contract for onboarding workflow state.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/vendorflow/internal/platform/errors"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/filter"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrConflict indicates a write violates a uniqueness constraint.
	ErrConflict = apperrors.New(apperrors.CodeConflict, "record conflict")
)

// RequestFilter narrows vendor request listings.
type RequestFilter struct {
	// Deleted selects soft-deleted rows instead of active ones.
	Deleted bool
	// Status restricts to one status when non-empty.
	Status domain.Status
}

// RequestStore persists vendor requests.
type RequestStore interface {
	PutRequest(ctx context.Context, request domain.VendorRequest) error
	GetRequest(ctx context.Context, id string) (domain.VendorRequest, error)
	GetRequestByEmail(ctx context.Context, email string) (domain.VendorRequest, error)
	GetRequestByToken(ctx context.Context, token string) (domain.VendorRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]domain.VendorRequest, error)
}

// OnboardingStore persists vendor submissions, at most one per request.
type OnboardingStore interface {
	PutOnboarding(ctx context.Context, onboarding domain.VendorOnboarding) error
	GetOnboarding(ctx context.Context, id string) (domain.VendorOnboarding, error)
	GetOnboardingByRequest(ctx context.Context, requestID string) (domain.VendorOnboarding, error)
}

// IssueStore persists validation issues.
type IssueStore interface {
	PutIssue(ctx context.Context, issue domain.ValidationIssue) error
	GetIssue(ctx context.Context, id string) (domain.ValidationIssue, error)
	// ListIssues returns issues oldest-first; an empty status lists all.
	ListIssues(ctx context.Context, onboardingID string, status domain.IssueStatus) ([]domain.ValidationIssue, error)
}

// FollowUpStore persists follow-ups and answers the monitor's aggregate queries.
type FollowUpStore interface {
	PutFollowUp(ctx context.Context, followUp domain.FollowUp) error
	GetFollowUp(ctx context.Context, id string) (domain.FollowUp, error)
	ListFollowUpsByOnboarding(ctx context.Context, onboardingID string) ([]domain.FollowUp, error)
	QueryFollowUps(ctx context.Context, cond filter.Condition, limit int) ([]domain.FollowUp, error)
	// ListUnresponsiveOnboardingIDs returns onboardings with at least minCount
	// follow-ups in statuses created before cutoff.
	ListUnresponsiveOnboardingIDs(ctx context.Context, statuses []domain.FollowUpStatus, cutoff time.Time, minCount int) ([]string, error)
	CountFollowUps(ctx context.Context, onboardingID string, statuses []domain.FollowUpStatus) (int, error)
	// LatestFollowUp returns the newest follow-up of the onboarding.
	LatestFollowUp(ctx context.Context, onboardingID string) (domain.FollowUp, error)
	// MaxEscalationLevel returns the highest level used for type, or -1 when none exists.
	MaxEscalationLevel(ctx context.Context, onboardingID string, followUpType domain.FollowUpType) (int, error)
}

// TemplateStore persists follow-up templates.
type TemplateStore interface {
	PutTemplate(ctx context.Context, template domain.Template) error
	GetTemplate(ctx context.Context, id string) (domain.Template, error)
	GetActiveTemplate(ctx context.Context, followUpType domain.FollowUpType, level int) (domain.Template, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]domain.Template, error)
}

// MessageHistoryStore persists message-generation audit rows.
type MessageHistoryStore interface {
	PutMessageHistory(ctx context.Context, history domain.MessageHistory) error
	GetMessageHistory(ctx context.Context, id string) (domain.MessageHistory, error)
	ListMessageHistorySince(ctx context.Context, since time.Time) ([]domain.MessageHistory, error)
}

// NotificationStore persists the procurement notification inbox.
type NotificationStore interface {
	PutNotification(ctx context.Context, notification domain.Notification) error
	GetNotification(ctx context.Context, id string) (domain.Notification, error)
	ListNotifications(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]domain.Notification, error)
	CountUnreadNotifications(ctx context.Context, recipient string) (int, error)
	MarkNotificationRead(ctx context.Context, id string, readAt time.Time) (domain.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, recipient string, readAt time.Time) (int, error)
}

// ActivityStore persists the append-only vendor audit trail.
type ActivityStore interface {
	PutActivity(ctx context.Context, entry domain.ActivityEntry) error
	ListActivity(ctx context.Context, requestID string) ([]domain.ActivityEntry, error)
}

// OutboxStore persists rendered follow-up emails handed to the mail relay.
type OutboxStore interface {
	PutOutboundEmail(ctx context.Context, email domain.OutboundEmail) error
	ListOutboundEmails(ctx context.Context, followUpID string) ([]domain.OutboundEmail, error)
}

// Store is the full onboarding persistence surface.
type Store interface {
	RequestStore
	OnboardingStore
	IssueStore
	FollowUpStore
	TemplateStore
	MessageHistoryStore
	NotificationStore
	ActivityStore
	OutboxStore

	// WithinTx runs fn against a transactional view of the store. A non-nil
	// error from fn rolls back every write made through that view. Nested
	// calls join the outer transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error
}
