package domain

import (
	"strconv"

	apperrors "github.com/louisbranch/vendorflow/internal/platform/errors"
)

var (
	// ErrNotFound matches any unknown id, token or email.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "not found")
	// ErrInvalidInput matches malformed caller input.
	ErrInvalidInput = apperrors.New(apperrors.CodeInvalidInput, "invalid input")
	// ErrTemplateNotFound matches a follow-up type with no usable template.
	ErrTemplateNotFound = apperrors.New(apperrors.CodeTemplateNotFound, "follow-up template not found")
	// ErrConflict matches uniqueness violations.
	ErrConflict = apperrors.New(apperrors.CodeConflict, "conflict")
	// ErrInvitationExpired matches use of an expired invitation link.
	ErrInvitationExpired = apperrors.New(apperrors.CodeInvitationExpired, "invitation link expired")
	// ErrNotDeleted matches a restore of a vendor that is not deleted.
	ErrNotDeleted = apperrors.New(apperrors.CodeNotDeleted, "vendor request is not deleted")
	// ErrStoreNotConfigured indicates a service built without persistence.
	ErrStoreNotConfigured = apperrors.New(apperrors.CodeStoreNotConfigured, "onboarding store is not configured")
)

// NotFound builds a not-found error naming the entity and key.
func NotFound(entity string, id string) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound, entity+" not found", map[string]string{
		"entity": entity,
		"id":     id,
	})
}

// InvalidInput builds an invalid-input error with optional metadata.
func InvalidInput(message string, metadata map[string]string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidInput, message, metadata)
}

// TemplateNotFound builds the error for a type with no template at any level.
func TemplateNotFound(followUpType FollowUpType, level int) error {
	return apperrors.WithMetadata(apperrors.CodeTemplateNotFound, "follow-up template not found", map[string]string{
		"type":  string(followUpType),
		"level": strconv.Itoa(level),
	})
}
