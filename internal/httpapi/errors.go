package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mesh-intelligence/rolodex/internal/res"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// badRequest lists the errors reported as 400 with their own message.
var badRequest = []error{
	types.ErrInvalidData,
	types.ErrInvalidName,
	types.ErrInvalidEmail,
	types.ErrInvalidAmount,
	types.ErrInvalidProgress,
	types.ErrCompanyRequired,
	types.ErrInvalidID,
	types.ErrInvalidFilter,
	types.ErrEmptyPatch,
}

// WriteErr maps store and validation errors to HTTP responses.
func WriteErr(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		res.ErrorDetails(w, "record not found", err.Error(), http.StatusNotFound)
	case errors.Is(err, types.ErrCompanyNotFound):
		res.ErrorDetails(w, "company not found", err.Error(), http.StatusNotFound)
	case errors.Is(err, types.ErrCompanyInUse):
		res.ErrorDetails(w,
			"Cannot delete company with associated people or opportunities. Reassign or delete them first.",
			err.Error(), http.StatusBadRequest)
	case errors.Is(err, types.ErrInvalidStatus):
		res.ErrorDetails(w, invalidStatusMessage(), err.Error(), http.StatusBadRequest)
	default:
		for _, target := range badRequest {
			if errors.Is(err, target) {
				res.ErrorDetails(w, target.Error(), err.Error(), http.StatusBadRequest)
				return
			}
		}
		log.Error("request failed", "error", err)
		res.ErrorDetails(w, "internal error", err.Error(), http.StatusInternalServerError)
	}
}

func invalidStatusMessage() string {
	return "Invalid status. Must be one of: " + types.StatusList()
}
