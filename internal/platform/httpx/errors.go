// Package httpx provides HTTP response utilities.
package httpx

import (
	"net/http"

	"github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// RespondError maps engine errors to HTTP responses using RFC7807.
// The engine only reports kind plus a human-readable detail; internals
// never leak to the caller.
func RespondError(w http.ResponseWriter, err error) {
	switch shared.Classify(err) {
	case shared.KindValidation:
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case shared.KindStateConflict:
		Problem(w, http.StatusConflict, "State Conflict", err.Error())
	case shared.KindResourceShortage:
		Problem(w, http.StatusConflict, "Resource Shortage", err.Error())
	case shared.KindIntegrity:
		Problem(w, http.StatusUnprocessableEntity, "Integrity Violation", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
