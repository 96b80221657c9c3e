package services

import (
	"context"
	"errors"
	"fmt"

	"taskboard-be/internal/repository"
)

// Kind classifies a failure. Handlers map kinds to HTTP statuses.
type Kind string

const (
	KindValidation  Kind = "VALIDATION_ERROR"
	KindForbidden   Kind = "FORBIDDEN"
	KindNotFound    Kind = "NOT_FOUND"
	KindConflict    Kind = "CONFLICT"
	KindAuditWrite  Kind = "AUDIT_WRITE_FAILED"
	KindUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	KindInternal    Kind = "INTERNAL"
)

const (
	CodeBoardNotFound     = "BOARD_NOT_FOUND"
	CodeColumnNotFound    = "COLUMN_NOT_FOUND"
	CodeTaskNotFound      = "TASK_NOT_FOUND"
	CodeTicketNotFound    = "TICKET_NOT_FOUND"
	CodeLabelNotFound     = "LABEL_NOT_FOUND"
	CodeMemberNotFound    = "MEMBER_NOT_FOUND"
	CodeInviteNotFound    = "INVITE_NOT_FOUND"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeAlreadyMember     = "ALREADY_MEMBER"
	CodeInviteAlreadySent = "INVITE_ALREADY_SENT"
	CodeInternal          = "INTERNAL_ERROR"
)

// Error is the structured failure returned by every service operation.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, INTERNAL for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// AsError unwraps err into an *Error, wrapping foreign errors as INTERNAL.
func AsError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal error", Err: err}
}

func validationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Code: string(KindValidation), Message: message, Field: field}
}

func notFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func forbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Code: string(KindForbidden), Message: message}
}

func conflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// storeError translates a repository failure. notFoundCode names the entity
// the caller was looking for.
func storeError(err error, notFoundCode string) error {
	var se *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se):
		return se
	case errors.Is(err, repository.ErrStale):
		return conflictError(string(KindConflict), "Board was modified concurrently, retry")
	case errors.Is(err, repository.ErrNotFound):
		return notFoundError(notFoundCode, notFoundMessage(notFoundCode))
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return &Error{Kind: KindUnavailable, Code: string(KindUnavailable), Message: "store unavailable", Err: err}
	}
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal error", Err: err}
}

func notFoundMessage(code string) string {
	switch code {
	case CodeBoardNotFound:
		return "Board not found"
	case CodeColumnNotFound:
		return "Column not found"
	case CodeTaskNotFound:
		return "Task not found"
	case CodeTicketNotFound:
		return "Ticket not found"
	case CodeLabelNotFound:
		return "Label not found"
	case CodeMemberNotFound:
		return "Member not found"
	case CodeInviteNotFound:
		return "Invite not found"
	case CodeUserNotFound:
		return "No such user registered"
	}
	return "Not found"
}
