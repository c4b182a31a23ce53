package notify

import (
	"strings"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Localizer is the minimal message-printer contract required for notification copy.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// NewLocalizer returns a printer for a BCP 47 tag, falling back to English.
func NewLocalizer(tag string) Localizer {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		parsed = language.English
	}
	return message.NewPrinter(parsed)
}

// Content is the localized copy of one notification.
type Content struct {
	Type    domain.NotificationType
	Title   string
	Message string
}

// RequestCreated announces a new vendor request to its creator.
func RequestCreated(loc Localizer, request domain.VendorRequest) Content {
	return Content{
		Type:    domain.NotificationRequestCreated,
		Title:   localize(loc, "onboarding.request_created.title"),
		Message: localize(loc, "onboarding.request_created.body", request.VendorName, request.VendorEmail),
	}
}

// FormSubmitted announces a vendor submission.
func FormSubmitted(loc Localizer, request domain.VendorRequest) Content {
	return Content{
		Type:    domain.NotificationFormSubmitted,
		Title:   localize(loc, "onboarding.form_submitted.title"),
		Message: localize(loc, "onboarding.form_submitted.body", request.VendorName),
	}
}

// StatusChanged announces a status overwrite with both display names.
func StatusChanged(loc Localizer, request domain.VendorRequest, from domain.Status, to domain.Status) Content {
	return Content{
		Type:    domain.NotificationStatusChanged,
		Title:   localize(loc, "onboarding.status_changed.title"),
		Message: localize(loc, "onboarding.status_changed.body", request.VendorName, from.DisplayName(), to.DisplayName()),
	}
}

// ValidationPending asks procurement to review a submission.
func ValidationPending(loc Localizer, request domain.VendorRequest) Content {
	return Content{
		Type:    domain.NotificationValidationPending,
		Title:   localize(loc, "onboarding.validation_pending.title"),
		Message: localize(loc, "onboarding.validation_pending.body", request.VendorName),
	}
}

// MissingData reports the fields a validation run flagged.
func MissingData(loc Localizer, request domain.VendorRequest, fields string) Content {
	return Content{
		Type:    domain.NotificationMissingData,
		Title:   localize(loc, "onboarding.missing_data.title"),
		Message: localize(loc, "onboarding.missing_data.body", request.VendorName, fields),
	}
}

// Unresponsive escalates a vendor that ignored several follow-ups.
func Unresponsive(loc Localizer, request domain.VendorRequest, unresolved int, days int) Content {
	return Content{
		Type:    domain.NotificationUnresponsive,
		Title:   localize(loc, "onboarding.unresponsive.title"),
		Message: localize(loc, "onboarding.unresponsive.body", request.VendorName, unresolved, days),
	}
}

// ActionURL is the procurement UI link for a vendor request.
func ActionURL(requestID string) string {
	return "/vendors/" + requestID
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		loc = defaultLocalizer
	}
	return loc.Sprintf(key, args...)
}

var defaultLocalizer = message.NewPrinter(language.English)
