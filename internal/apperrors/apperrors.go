// Package apperrors provides structured domain errors with
// machine-readable codes and their HTTP mapping.
package apperrors

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Not-found errors
	CodeCircleNotFound     Code = "CIRCLE_NOT_FOUND"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeMembershipNotFound Code = "MEMBERSHIP_NOT_FOUND"
	CodeInvitationNotFound Code = "INVITATION_NOT_FOUND"
	CodeRideNotFound       Code = "RIDE_NOT_FOUND"

	// Conflict errors
	CodeAlreadyMember         Code = "ALREADY_MEMBER"
	CodeInvitationAlreadyUsed Code = "INVITATION_ALREADY_USED"
	CodeDuplicateSlug         Code = "CIRCLE_DUPLICATE_SLUG"
	CodeDuplicateCode         Code = "INVITATION_DUPLICATE_CODE"
	CodeCodeSpaceExhausted    Code = "INVITATION_CODE_SPACE_EXHAUSTED"
	CodeAlreadyPassenger      Code = "RIDE_ALREADY_PASSENGER"

	// Validation errors
	CodeCircleNameEmpty    Code = "CIRCLE_NAME_EMPTY"
	CodeCircleSlugEmpty    Code = "CIRCLE_SLUG_EMPTY"
	CodeQuotaExhausted     Code = "MEMBERSHIP_QUOTA_EXHAUSTED"
	CodeMembershipInactive Code = "MEMBERSHIP_INACTIVE"
	CodeCircleInactive     Code = "CIRCLE_INACTIVE"
	CodeNoSeatsAvailable   Code = "RIDE_NO_SEATS_AVAILABLE"
	CodeInvalidInput       Code = "INVALID_INPUT"

	// Permission errors
	CodePermissionDenied Code = "PERMISSION_DENIED"
)

// Error is a domain error carrying a machine-readable code.
type Error struct {
	code    Code
	message string
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Error returns the human-readable message.
func (e *Error) Error() string {
	return e.message
}

// Code returns the machine-readable code.
func (e *Error) Code() Code {
	return e.code
}

// CodeOf extracts the code from err, or CodeUnknown when err carries none.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.code
	}
	return CodeUnknown
}

// HTTPStatus maps a domain error to its HTTP status code.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeCircleNotFound, CodeUserNotFound, CodeMembershipNotFound,
		CodeInvitationNotFound, CodeRideNotFound:
		return http.StatusNotFound
	case CodeAlreadyMember, CodeInvitationAlreadyUsed, CodeDuplicateSlug,
		CodeDuplicateCode, CodeCodeSpaceExhausted, CodeAlreadyPassenger:
		return http.StatusConflict
	case CodeCircleNameEmpty, CodeCircleSlugEmpty, CodeQuotaExhausted,
		CodeMembershipInactive, CodeCircleInactive, CodeNoSeatsAvailable,
		CodeInvalidInput:
		return http.StatusBadRequest
	case CodePermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
