package domain

import "time"

// ActivityType classifies entries in a vendor's audit trail.
type ActivityType string

const (
	ActivityRequestCreated   ActivityType = "VENDOR_REQUEST_CREATED"
	ActivityInvitationSent   ActivityType = "INVITATION_SENT"
	ActivityInvitationResent ActivityType = "INVITATION_RESENT"
	ActivityLinkOpened       ActivityType = "LINK_OPENED"
	ActivityFormSubmitted    ActivityType = "FORM_SUBMITTED"
	ActivityStatusUpdated    ActivityType = "STATUS_UPDATED"
	ActivityFollowUpCreated  ActivityType = "FOLLOW_UP_CREATED"
	ActivityFollowUpResolved ActivityType = "FOLLOW_UP_RESOLVED"
	ActivityVendorApproved   ActivityType = "VENDOR_APPROVED"
	ActivityVendorDenied     ActivityType = "VENDOR_DENIED"
	ActivityVendorDeleted    ActivityType = "VENDOR_DELETED"
	ActivityVendorRestored   ActivityType = "VENDOR_RESTORED"
	ActivityEmailSent        ActivityType = "EMAIL_SENT"
	ActivityIssueResolved    ActivityType = "ISSUE_RESOLVED"
)

// ActivityEntry is one append-only audit record.
type ActivityEntry struct {
	ID          string
	RequestID   string
	Type        ActivityType
	Description string
	Details     string
	PerformedBy string
	PerformedAt time.Time
}

// OutboundEmailStatus records the outcome of a follow-up email hand-off.
type OutboundEmailStatus string

const (
	OutboundEmailQueued OutboundEmailStatus = "QUEUED"
	OutboundEmailFailed OutboundEmailStatus = "FAILED"
)

// OutboundEmail is one rendered follow-up email handed to the mail relay.
type OutboundEmail struct {
	ID           string
	FollowUpID   string
	Recipient    string
	Subject      string
	HTMLBody     string
	TextBody     string
	ResumeToken  string
	FollowUpType FollowUpType
	Status       OutboundEmailStatus
	Error        string
	CreatedAt    time.Time
}
