package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/punchy-be/internal/auth"
	"github.com/isdelr/punchy-be/internal/models"
	"github.com/isdelr/punchy-be/internal/services"
	"github.com/rs/zerolog/log"
)

// Response status values understood by the browser client.
const (
	StatusOK            = "ok"
	StatusSuccess       = "success"
	StatusFail          = "fail"
	StatusAuthenticated = "authenticated"
	StatusUpdated       = "updated"
	StatusInvalidToken  = "invalid_token"
	StatusInvalidLang   = "invalid_lang"
	StatusOpenExists    = "open_exists"
	StatusNoOpenRecord  = "no_open_record"
	StatusInvalidRange  = "invalid_range"
)

const (
	msgAuthFailed       = "Authentication failed."
	msgInvalidBody      = "Invalid request body"
	msgInvalidTimestamp = "Invalid timestamp"
	msgInvalidTimezone  = "Invalid timezone"
	msgInternal         = "Internal server error"
)

type jsonBody map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, jsonBody{"status": StatusFail, "message": message})
}

// decodeBody reads a JSON request body into dst. An empty body is accepted so
// that a token can arrive by header or cookie alone.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// resolveUser authenticates the request. On failure it writes the response
// and returns false.
func resolveUser(w http.ResponseWriter, r *http.Request, users services.UserServiceProvider, bodyToken string) (models.User, string, bool) {
	token := auth.TokenFromRequest(r, bodyToken)

	user, err := users.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			writeJSON(w, http.StatusUnauthorized, jsonBody{
				"status":         StatusInvalidToken,
				"message":        msgAuthFailed,
				"received_token": token,
			})
			return models.User{}, token, false
		}
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to resolve token")
		writeFail(w, http.StatusInternalServerError, msgInternal)
		return models.User{}, token, false
	}
	return user, token, true
}
