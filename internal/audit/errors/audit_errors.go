package auditerrors

import (
	"net/http"

	"go-reqflow/internal/shared/apperror"
)

var (
	ErrInvalidEntityID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid entity id",
		http.StatusBadRequest,
	)
	ErrDeleteUnsupported = apperror.New(
		apperror.CodeUnsupported,
		"audit entries are append-only and cannot be deleted",
		http.StatusMethodNotAllowed,
	)
)
