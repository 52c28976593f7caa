package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/punchy-be/internal/services"
	"github.com/rs/zerolog/log"
)

// PunchHandler handles HTTP requests for the caller's own time records.
type PunchHandler struct {
	users   services.UserServiceProvider
	punches services.PunchServiceProvider
}

// NewPunchHandler creates a new PunchHandler.
func NewPunchHandler(users services.UserServiceProvider, punches services.PunchServiceProvider) *PunchHandler {
	return &PunchHandler{users: users, punches: punches}
}

// PunchPayload is the body of a punch-in or punch-out. Timezone is an IANA
// name used for zoneless instants and for rendering the response.
type PunchPayload struct {
	Token    string `json:"token"`
	When     string `json:"when"`
	Timezone string `json:"timezone"`
}

// ListPayload is the body of a listing request.
type ListPayload struct {
	Token    string `json:"token"`
	Timezone string `json:"timezone"`
}

// PunchIn opens a new session for the caller.
func (h *PunchHandler) PunchIn(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, true)
}

// PunchOut closes the caller's open session.
func (h *PunchHandler) PunchOut(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, false)
}

func (h *PunchHandler) punch(w http.ResponseWriter, r *http.Request, in bool) {
	var payload PunchPayload
	if err := decodeBody(r, &payload); err != nil {
		writeFail(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, token, ok := resolveUser(w, r, h.users, payload.Token)
	if !ok {
		return
	}

	loc, err := services.ParseLocation(payload.Timezone)
	if err != nil {
		writeFail(w, http.StatusBadRequest, msgInvalidTimezone)
		return
	}

	punch := h.punches.PunchOut
	if in {
		punch = h.punches.PunchIn
	}
	record, err := punch(r.Context(), user, payload.When, loc)
	if err != nil {
		var openErr *services.OpenExistsError
		switch {
		case errors.As(err, &openErr):
			writeJSON(w, http.StatusConflict, jsonBody{
				"status":         StatusOpenExists,
				"message":        "You must punch out before starting a new record.",
				"open_record":    openErr.Open.In(loc),
				"received_token": token,
			})
		case errors.Is(err, services.ErrOpenExists):
			writeJSON(w, http.StatusConflict, jsonBody{
				"status":         StatusOpenExists,
				"message":        "You must punch out before starting a new record.",
				"received_token": token,
			})
		case errors.Is(err, services.ErrNoOpenRecord):
			writeJSON(w, http.StatusConflict, jsonBody{
				"status":         StatusNoOpenRecord,
				"message":        "No open record to punch out.",
				"received_token": token,
			})
		case errors.Is(err, services.ErrInvalidRange):
			writeJSON(w, http.StatusBadRequest, jsonBody{
				"status":         StatusInvalidRange,
				"message":        "End time cannot be before start time.",
				"received_token": token,
			})
		case errors.Is(err, services.ErrInvalidTimestamp):
			writeFail(w, http.StatusBadRequest, msgInvalidTimestamp)
		default:
			log.Error().Err(err).Str("username", user.Username).Bool("punch_in", in).Msg("Failed to record punch")
			writeFail(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	writeJSON(w, http.StatusOK, jsonBody{
		"status":         StatusOK,
		"record":         record.In(loc),
		"received_token": token,
	})
}

// List returns the caller's open record and closed history.
func (h *PunchHandler) List(w http.ResponseWriter, r *http.Request) {
	var payload ListPayload
	if err := decodeBody(r, &payload); err != nil {
		writeFail(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, token, ok := resolveUser(w, r, h.users, payload.Token)
	if !ok {
		return
	}

	loc, err := services.ParseLocation(payload.Timezone)
	if err != nil {
		writeFail(w, http.StatusBadRequest, msgInvalidTimezone)
		return
	}

	listing, err := h.punches.ListOwn(r.Context(), user)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("Failed to list time records")
		writeFail(w, http.StatusInternalServerError, msgInternal)
		return
	}
	listing = listing.In(loc)

	writeJSON(w, http.StatusOK, jsonBody{
		"status":         StatusOK,
		"open_record":    listing.OpenRecord,
		"records":        listing.Records,
		"received_token": token,
	})
}
