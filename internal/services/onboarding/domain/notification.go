package domain

import "time"

// NotificationType classifies procurement-facing notifications.
type NotificationType string

const (
	NotificationRequestCreated    NotificationType = "VENDOR_REQUEST_CREATED"
	NotificationResponseReceived  NotificationType = "VENDOR_RESPONSE_RECEIVED"
	NotificationFormSubmitted     NotificationType = "FORM_SUBMITTED"
	NotificationStatusChanged     NotificationType = "STATUS_CHANGED"
	NotificationFollowUpRequired  NotificationType = "FOLLOW_UP_REQUIRED"
	NotificationMissingData       NotificationType = "MISSING_DATA"
	NotificationValidationPending NotificationType = "VALIDATION_PENDING"
	NotificationVendorApproved    NotificationType = "VENDOR_APPROVED"
	NotificationVendorDenied      NotificationType = "VENDOR_DENIED"
	NotificationDeadline          NotificationType = "DEADLINE_APPROACHING"
	NotificationDocumentUploaded  NotificationType = "DOCUMENT_UPLOADED"
	NotificationUnresponsive      NotificationType = "VENDOR_UNRESPONSIVE"
)

// Severity returns the UI severity bucket: info, success, warning or error.
func (t NotificationType) Severity() string {
	switch t {
	case NotificationResponseReceived, NotificationFormSubmitted, NotificationVendorApproved:
		return "success"
	case NotificationFollowUpRequired, NotificationMissingData, NotificationValidationPending, NotificationDeadline:
		return "warning"
	case NotificationVendorDenied, NotificationUnresponsive:
		return "error"
	default:
		return "info"
	}
}

// Notification is one inbox item for a procurement user.
type Notification struct {
	ID        string
	Recipient string
	Type      NotificationType
	Title     string
	Message   string
	RequestID string
	ActionURL string
	ReadAt    *time.Time
	CreatedAt time.Time
}

// Read reports whether the recipient acknowledged the notification.
func (n Notification) Read() bool {
	return n.ReadAt != nil
}
