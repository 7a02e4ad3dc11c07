package api

import (
	"errors"
	"net/http"

	"github.com/flatmate/flatmate-backend/internal/api/respond"
	"github.com/flatmate/flatmate-backend/internal/services"
)

// writeServiceError maps engine errors to HTTP. Validation failures carry
// their message; store failures hide the cause behind a generic fallback.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var ve services.ValidationError
	if errors.As(err, &ve) {
		respond.WriteBadRequest(w, ve.Message)
		return
	}
	respond.WriteInternalError(w, fallback)
}
