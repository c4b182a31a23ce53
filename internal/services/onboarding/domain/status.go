package domain

import (
	"strings"
)

// Status is the workflow status shared by a vendor request and its onboarding.
type Status string

const (
	// StatusRequested means the invitation was sent and the link is unopened.
	StatusRequested Status = "REQUESTED"
	// StatusAwaitingResponse means the vendor opened the link but has not submitted.
	StatusAwaitingResponse Status = "AWAITING_RESPONSE"
	// StatusMissingData means the vendor shared partial or incorrect information.
	StatusMissingData Status = "MISSING_DATA"
	// StatusAwaitingValidation means the submission waits for procurement review.
	StatusAwaitingValidation Status = "AWAITING_VALIDATION"
	// StatusValidated means procurement approved the vendor.
	StatusValidated Status = "VALIDATED"
	// StatusDenied means procurement rejected the vendor.
	StatusDenied Status = "DENIED"
	// StatusDeleted marks a soft-deleted vendor.
	StatusDeleted Status = "DELETED"
)

var statusDisplayNames = map[Status]string{
	StatusRequested:          "Requested",
	StatusAwaitingResponse:   "Waiting for vendor response",
	StatusMissingData:        "Waiting for missing data",
	StatusAwaitingValidation: "Waiting for validation",
	StatusValidated:          "Validated",
	StatusDenied:             "Denied",
	StatusDeleted:            "Deleted",
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusRequested,
		StatusAwaitingResponse,
		StatusMissingData,
		StatusAwaitingValidation,
		StatusValidated,
		StatusDenied,
		StatusDeleted,
	}
}

// ParseStatus normalizes a caller-provided status name.
func ParseStatus(raw string) (Status, error) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := statusDisplayNames[candidate]; !ok {
		return "", InvalidInput("unknown status", map[string]string{"status": raw})
	}
	return candidate, nil
}

// Valid reports whether s is one of the seven workflow statuses.
func (s Status) Valid() bool {
	_, ok := statusDisplayNames[s]
	return ok
}

// DisplayName returns the human label used in notification copy.
func (s Status) DisplayName() string {
	if name, ok := statusDisplayNames[s]; ok {
		return name
	}
	return string(s)
}
