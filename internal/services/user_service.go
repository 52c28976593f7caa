package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/punchy-be/internal/database"
	"github.com/isdelr/punchy-be/internal/models"
)

// UserServiceProvider defines the interface for identity lookups and the local
// user mirror.
type UserServiceProvider interface {
	Resolve(ctx context.Context, token string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, username, email, lang, token string) (models.User, error)
}

// UserService resolves opaque tokens to users. Tokens are issued elsewhere;
// this service only looks them up.
type UserService struct {
	db *database.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// Resolve maps a token to its user. It fails closed: an empty or unknown token
// is ErrInvalidToken.
func (s *UserService) Resolve(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrInvalidToken
	}

	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(`SELECT username, email, display_lang FROM users WHERE auth_token = ?`), token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrInvalidToken
		}
		return models.User{}, storageError("resolve token", err)
	}
	return user.Normalize(), nil
}

// GetUserByUsername retrieves a single user by username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(`SELECT username, email, display_lang FROM users WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return models.User{}, storageError("get user", err)
	}
	return user.Normalize(), nil
}

// CreateUser mirrors a user whose token was issued by the identity system.
// An empty lang defaults to EN.
func (s *UserService) CreateUser(ctx context.Context, username, email, lang, token string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, errors.New("username is required")
	}
	if token == "" {
		return models.User{}, errors.New("auth token is required")
	}
	if strings.TrimSpace(lang) == "" {
		lang = models.LangEN
	}
	lang, err := NormalizeLang(lang)
	if err != nil {
		return models.User{}, err
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO users (username, email, display_lang, auth_token) VALUES (?, ?, ?, ?)`),
		username, strings.TrimSpace(email), lang, token)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return models.User{}, storageError("create user", err)
	}
	return s.GetUserByUsername(ctx, username)
}
