package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/punchy-be/internal/services"
	"github.com/rs/zerolog/log"
)

// VisitHandler serves the public, read-only visit listing.
type VisitHandler struct {
	service services.VisitServiceProvider
}

// NewVisitHandler creates a new VisitHandler.
func NewVisitHandler(service services.VisitServiceProvider) *VisitHandler {
	return &VisitHandler{service: service}
}

// ListAll handles GET /records?username=&limit=&offset=.
func (h *VisitHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := services.MaxListLimit
	if raw, ok := q["limit"]; ok && len(raw) > 0 {
		limit = atoiOrZero(raw[0])
	}
	offset := atoiOrZero(q.Get("offset"))

	listing, err := h.service.ListAll(r.Context(), q.Get("username"), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list visit records")
		writeFail(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, jsonBody{
		"status": StatusSuccess,
		"count":  listing.Count,
		"items":  listing.Items,
	})
}

// atoiOrZero parses a query value; anything that is not an integer counts as 0.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
