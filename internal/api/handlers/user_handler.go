package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/punchy-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles session checks and account settings.
type UserHandler struct {
	users     services.UserServiceProvider
	languages services.LanguageServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, languages services.LanguageServiceProvider) *UserHandler {
	return &UserHandler{users: users, languages: languages}
}

// SessionPayload is the body of a session check.
type SessionPayload struct {
	Token string `json:"token"`
}

// LangPayload is the body of a display language change.
type LangPayload struct {
	Token string `json:"token"`
	Lang  string `json:"lang"`
}

// Session reports whether the caller's token belongs to a user.
func (h *UserHandler) Session(w http.ResponseWriter, r *http.Request) {
	var payload SessionPayload
	if err := decodeBody(r, &payload); err != nil {
		writeFail(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, token, ok := resolveUser(w, r, h.users, payload.Token)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, jsonBody{
		"status":         StatusAuthenticated,
		"user":           user,
		"received_token": token,
	})
}

// ChangeLang updates the caller's display language.
func (h *UserHandler) ChangeLang(w http.ResponseWriter, r *http.Request) {
	var payload LangPayload
	if err := decodeBody(r, &payload); err != nil {
		writeFail(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, token, ok := resolveUser(w, r, h.users, payload.Token)
	if !ok {
		return
	}

	updated, err := h.languages.ChangeLang(r.Context(), user, payload.Lang)
	if err != nil {
		var langErr *services.InvalidLangError
		if errors.As(err, &langErr) {
			writeJSON(w, http.StatusBadRequest, jsonBody{
				"status":         StatusInvalidLang,
				"message":        "Language must be one of EN, PT, or FR.",
				"received_token": token,
				"received_lang":  langErr.Lang,
			})
			return
		}
		log.Error().Err(err).Str("username", user.Username).Msg("Failed to change display language")
		writeFail(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, jsonBody{
		"status":         StatusUpdated,
		"user":           updated,
		"received_token": token,
	})
}
