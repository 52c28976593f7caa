package models

import "strings"

// Display languages a user can pick.
const (
	LangEN = "EN"
	LangPT = "PT"
	LangFR = "FR"
)

// SupportedLangs lists the accepted display_lang values.
var SupportedLangs = []string{LangEN, LangPT, LangFR}

// IsSupportedLang reports whether lang is an accepted, already normalized display language.
func IsSupportedLang(lang string) bool {
	for _, l := range SupportedLangs {
		if l == lang {
			return true
		}
	}
	return false
}

// User represents an account mirrored from the external identity system.
// The auth token is never loaded into this struct.
type User struct {
	Username    string `json:"username" db:"username"`
	Email       string `json:"email" db:"email"`
	DisplayLang string `json:"lang" db:"display_lang"`
}

// Normalize upper-cases the display language as stored values may be lower case.
func (u User) Normalize() User {
	u.DisplayLang = strings.ToUpper(u.DisplayLang)
	return u
}
