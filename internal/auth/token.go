package auth

import (
	"net/http"
	"strings"
)

// Cookie names checked for a session token, in order.
var tokenCookies = []string{"auth_token", "token"}

// TokenFromRequest returns the opaque session token for r. A token sent in the
// JSON body wins, then an Authorization bearer header, then the auth cookies.
// It returns "" when none is present; the token is never validated here.
func TokenFromRequest(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	for _, name := range tokenCookies {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}
