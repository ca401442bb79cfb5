// Package apperr defines the failure taxonomy of the group lifecycle engine.
//
// Every business-rule failure is an *Error carrying a Kind (what class of
// failure), a Reason (which rule was violated) and the entity involved, so
// callers can map it to a status code without parsing messages.
//
// Sentinels such as ErrNotOwner match any *Error with the same Reason:
//
//	if errors.Is(err, apperr.ErrNotOwner) { ... }
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindInvalidState
	KindConcurrentModification
	KindUpstreamFailure
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidState:
		return "invalid_state"
	case KindConcurrentModification:
		return "concurrent_modification"
	case KindUpstreamFailure:
		return "upstream_failure"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return "unknown"
	}
}

// Reason is a machine-readable identifier for the violated rule.
type Reason string

const (
	ReasonGroupNotFound          Reason = "group_not_found"
	ReasonContentNotFound        Reason = "content_not_found"
	ReasonUserNotFound           Reason = "user_not_found"
	ReasonNotOwner               Reason = "not_owner"
	ReasonNotMember              Reason = "not_member"
	ReasonNotContentOwner        Reason = "not_content_owner"
	ReasonNotSharer              Reason = "not_sharer"
	ReasonGroupDeleted           Reason = "group_deleted"
	ReasonAlreadyMember          Reason = "already_member"
	ReasonGroupFull              Reason = "group_full"
	ReasonOwnerCannotLeave       Reason = "owner_cannot_leave"
	ReasonCannotRemoveOwner      Reason = "cannot_remove_owner"
	ReasonTargetNotMember        Reason = "target_not_member"
	ReasonAlreadyShared          Reason = "already_shared"
	ReasonAlreadyScheduled       Reason = "deletion_already_scheduled"
	ReasonNotScheduled           Reason = "deletion_not_scheduled"
	ReasonInvalidField           Reason = "invalid_field"
	ReasonConcurrentModification Reason = "concurrent_modification"
	ReasonUpstream               Reason = "upstream_failure"
)

// Error is the single error type returned by the engine.
type Error struct {
	Kind   Kind
	Reason Reason
	// Entity names the record or field involved ("group", "member", "name", ...).
	Entity string
	// ID is the identifier of the entity, if any.
	ID string
	// Err is the underlying cause, for logging only.
	Err error
}

func (e *Error) Error() string {
	msg := string(e.Reason)
	if e.Entity != "" {
		msg += ": " + e.Entity
		if e.ID != "" {
			msg += " " + e.ID
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

// With returns a copy of e naming the entity and id involved.
func (e *Error) With(entity, id string) *Error {
	cp := *e
	cp.Entity = entity
	cp.ID = id
	return &cp
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

var (
	ErrGroupNotFound   = &Error{Kind: KindNotFound, Reason: ReasonGroupNotFound}
	ErrContentNotFound = &Error{Kind: KindNotFound, Reason: ReasonContentNotFound}
	ErrUserNotFound    = &Error{Kind: KindNotFound, Reason: ReasonUserNotFound}

	ErrNotOwner        = &Error{Kind: KindUnauthorized, Reason: ReasonNotOwner}
	ErrNotMember       = &Error{Kind: KindUnauthorized, Reason: ReasonNotMember}
	ErrNotContentOwner = &Error{Kind: KindUnauthorized, Reason: ReasonNotContentOwner}
	ErrNotSharer       = &Error{Kind: KindUnauthorized, Reason: ReasonNotSharer}

	ErrGroupDeleted      = &Error{Kind: KindInvalidState, Reason: ReasonGroupDeleted}
	ErrAlreadyMember     = &Error{Kind: KindInvalidState, Reason: ReasonAlreadyMember}
	ErrGroupFull         = &Error{Kind: KindInvalidState, Reason: ReasonGroupFull}
	ErrOwnerCannotLeave  = &Error{Kind: KindInvalidState, Reason: ReasonOwnerCannotLeave}
	ErrCannotRemoveOwner = &Error{Kind: KindInvalidState, Reason: ReasonCannotRemoveOwner}
	ErrTargetNotMember   = &Error{Kind: KindInvalidState, Reason: ReasonTargetNotMember}
	ErrAlreadyShared     = &Error{Kind: KindInvalidState, Reason: ReasonAlreadyShared}
	ErrAlreadyScheduled  = &Error{Kind: KindInvalidState, Reason: ReasonAlreadyScheduled}
	ErrNotScheduled      = &Error{Kind: KindInvalidState, Reason: ReasonNotScheduled}

	ErrInvalidField = &Error{Kind: KindInvalidArgument, Reason: ReasonInvalidField}

	ErrConcurrentModification = &Error{Kind: KindConcurrentModification, Reason: ReasonConcurrentModification}
	ErrUpstream               = &Error{Kind: KindUpstreamFailure, Reason: ReasonUpstream}
)

// Invalid reports a field validation failure.
func Invalid(field, format string, args ...any) *Error {
	return ErrInvalidField.With(field, "").Wrap(fmt.Errorf(format, args...))
}

// Upstream wraps a collaborator failure. Errors that are already an *Error
// pass through unchanged.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if As(err) != nil {
		return err
	}
	return ErrUpstream.With(op, "").Wrap(err)
}

// As extracts the *Error from err's chain, or nil.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// KindOf returns the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if ae := As(err); ae != nil {
		return ae.Kind
	}
	return KindUnknown
}
