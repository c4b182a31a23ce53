// Package errors provides structured, code-matched errors for vendorflow.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeNotFound marks an unknown id, token or email.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInvalidInput marks malformed caller input such as an unparsable enum.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeTemplateNotFound marks a follow-up type with no template at any level.
	CodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	// CodeConflict marks a uniqueness violation such as a duplicate vendor email.
	CodeConflict Code = "CONFLICT"
	// CodeInvitationExpired marks a vendor link used after its expiry.
	CodeInvitationExpired Code = "INVITATION_EXPIRED"
	// CodeNotDeleted marks a restore request for a vendor that is not deleted.
	CodeNotDeleted Code = "NOT_DELETED"
	// CodeStoreNotConfigured marks a service built without persistence.
	CodeStoreNotConfigured Code = "STORE_NOT_CONFIGURED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidInput:
		return codes.InvalidArgument
	case CodeInvitationExpired, CodeNotDeleted:
		return codes.FailedPrecondition
	case CodeNotFound, CodeTemplateNotFound:
		return codes.NotFound
	case CodeConflict:
		return codes.AlreadyExists
	case CodeStoreNotConfigured:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
