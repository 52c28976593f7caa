package services

import (
	"errors"
	"fmt"

	"github.com/isdelr/punchy-be/internal/models"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrOpenExists       = errors.New("open record exists")
	ErrNoOpenRecord     = errors.New("no open record")
	ErrInvalidRange     = errors.New("end time cannot be before start time")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidTimezone  = errors.New("invalid timezone")
	ErrInvalidLang      = errors.New("invalid language")
	ErrStorage          = errors.New("storage failure")
)

// OpenExistsError is returned by PunchIn when the user already has an open
// record. Open is that record, unchanged.
type OpenExistsError struct {
	Open models.PunchRecord
}

func (e *OpenExistsError) Error() string {
	return fmt.Sprintf("%s: record %d since %s", ErrOpenExists, e.Open.ID, e.Open.ClockIn.Format("2006-01-02T15:04:05Z07:00"))
}

func (e *OpenExistsError) Is(target error) bool {
	return target == ErrOpenExists
}

// InvalidLangError carries the normalized language value that was rejected.
type InvalidLangError struct {
	Lang string
}

func (e *InvalidLangError) Error() string {
	return fmt.Sprintf("%s %q: must be one of EN, PT, or FR", ErrInvalidLang, e.Lang)
}

func (e *InvalidLangError) Is(target error) bool {
	return target == ErrInvalidLang
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
