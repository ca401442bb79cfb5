package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/groupshare/internal/apperr"
)

var errNoCaller = errors.New("no authenticated caller")

// ReasonHeader carries the apperr reason of a failed call.
const ReasonHeader = "Groupshare-Reason"

// toConnectError maps an engine error to a Connect error with the matching code.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return connect.NewError(connect.CodeCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	e := apperr.As(err)
	if e == nil {
		return connect.NewError(connect.CodeInternal, err)
	}

	connectErr := connect.NewError(codeFor(e.Kind), err)
	connectErr.Meta().Set(ReasonHeader, string(e.Reason))
	return connectErr
}

func codeFor(kind apperr.Kind) connect.Code {
	switch kind {
	case apperr.KindNotFound:
		return connect.CodeNotFound
	case apperr.KindUnauthorized:
		return connect.CodePermissionDenied
	case apperr.KindInvalidState:
		return connect.CodeFailedPrecondition
	case apperr.KindConcurrentModification:
		return connect.CodeAborted
	case apperr.KindUpstreamFailure:
		return connect.CodeUnavailable
	case apperr.KindInvalidArgument:
		return connect.CodeInvalidArgument
	default:
		return connect.CodeInternal
	}
}

// ReasonOf returns the apperr reason attached to a Connect error, if any.
func ReasonOf(err error) apperr.Reason {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return ""
	}
	return apperr.Reason(connectErr.Meta().Get(ReasonHeader))
}
