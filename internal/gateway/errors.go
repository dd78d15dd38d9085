package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/canonica-labs/querygate/internal/errors"
	"github.com/canonica-labs/querygate/pkg/api"
	"github.com/canonica-labs/querygate/pkg/models"
)

// statusFor maps an error kind onto its HTTP status.
func statusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindBadRequest:
		return http.StatusBadRequest
	case errors.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": ...}. The full error, cause included, only
// reaches the access log.
func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, err error) {
	infoFrom(r.Context()).err = err
	writeJSON(w, statusFor(errors.KindOf(err)), errorBody(errors.PublicMessage(err)))
}

func errorBody(msg string) models.ErrorResponse {
	return models.ErrorResponse{Error: msg}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(api.HeaderContentType, api.ContentTypeJSON)
	w.WriteHeader(status)
	// The status line is already out; a failed write means the client went away.
	_ = json.NewEncoder(w).Encode(body)
}
