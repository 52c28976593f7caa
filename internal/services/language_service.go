package services

import (
	"context"
	"strings"

	"github.com/isdelr/punchy-be/internal/database"
	"github.com/isdelr/punchy-be/internal/models"
	"github.com/rs/zerolog/log"
)

// LanguageServiceProvider defines the interface for display language updates.
type LanguageServiceProvider interface {
	ChangeLang(ctx context.Context, user models.User, lang string) (models.User, error)
}

// LanguageService persists a user's display language.
type LanguageService struct {
	db    *database.DB
	users UserServiceProvider
}

// NewLanguageService creates a new LanguageService.
func NewLanguageService(db *database.DB, users UserServiceProvider) *LanguageService {
	return &LanguageService{db: db, users: users}
}

// NormalizeLang trims and upper-cases lang and checks it against the supported
// set. On failure the normalized value is returned alongside an *InvalidLangError.
func NormalizeLang(lang string) (string, error) {
	norm := strings.ToUpper(strings.TrimSpace(lang))
	if !models.IsSupportedLang(norm) {
		return norm, &InvalidLangError{Lang: norm}
	}
	return norm, nil
}

// ChangeLang validates lang, updates the user's row and returns the refreshed user.
func (s *LanguageService) ChangeLang(ctx context.Context, user models.User, lang string) (models.User, error) {
	norm, err := NormalizeLang(lang)
	if err != nil {
		return models.User{}, err
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET display_lang = ? WHERE username = ?`), norm, user.Username); err != nil {
		return models.User{}, storageError("change lang", err)
	}

	updated, err := s.users.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return models.User{}, err
	}
	log.Info().Str("username", updated.Username).Str("lang", updated.DisplayLang).Msg("Display language updated")
	return updated, nil
}
