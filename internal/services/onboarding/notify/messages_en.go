package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "onboarding.request_created.title", "Vendor Request Created")
	message.SetString(lang, "onboarding.request_created.body", "New vendor request from %s (%s)")
	message.SetString(lang, "onboarding.form_submitted.title", "Form Submitted")
	message.SetString(lang, "onboarding.form_submitted.body", "Vendor %s has submitted the onboarding form")
	message.SetString(lang, "onboarding.status_changed.title", "Status Changed")
	message.SetString(lang, "onboarding.status_changed.body", "Vendor %s status changed from %s to %s")
	message.SetString(lang, "onboarding.validation_pending.title", "Validation Required")
	message.SetString(lang, "onboarding.validation_pending.body", "Vendor %s is awaiting validation. Please review.")
	message.SetString(lang, "onboarding.missing_data.title", "Missing Data")
	message.SetString(lang, "onboarding.missing_data.body", "Vendor %s has missing data: %s")
	message.SetString(lang, "onboarding.unresponsive.title", "Vendor Unresponsive - Action Required")
	message.SetString(lang, "onboarding.unresponsive.body", "Vendor %s has been unresponsive. %d follow-up(s) sent with no response for %d days. Please review and take appropriate action.")
}
