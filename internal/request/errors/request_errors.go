package requesterrors

import (
	"fmt"
	"net/http"

	"go-reqflow/internal/shared/apperror"
)

var (
	ErrInvalidRequestID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid request id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidAssigneeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid assignee id",
		http.StatusBadRequest,
	)
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"request not found",
		http.StatusNotFound,
	)
	ErrNotRequester = apperror.New(
		apperror.CodeForbidden,
		"only the requester may perform this operation",
		http.StatusForbidden,
	)
	ErrNotAssignee = apperror.New(
		apperror.CodeForbidden,
		"only the assigned reviewer may decide this request",
		http.StatusForbidden,
	)
	ErrDraftOnlyEdit = apperror.New(
		apperror.CodeInvalidState,
		"request details can only be edited while in DRAFT",
		http.StatusBadRequest,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required when rejecting a request",
		http.StatusBadRequest,
	)
	ErrRequestConflict = apperror.New(
		apperror.CodeConflict,
		"request was modified concurrently, reload and retry",
		http.StatusConflict,
	)
)

// InvalidTransition names the attempted operation and the current status so
// callers can tell exactly which precondition failed.
func InvalidTransition(op, status string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("cannot %s request in status %s", op, status),
		http.StatusBadRequest,
	)
}
