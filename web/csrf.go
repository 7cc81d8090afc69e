package web

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
)

const (
	csrfCookieName = "websettings_csrf"
	csrfFieldName  = "_csrf"
)

// writeCSRFCookie sets a fresh double-submit CSRF cookie. The settings form
// embeds the same token as a hidden field; both travel back on submit and
// must match. The cookie can stay HttpOnly because the server, not a script,
// copies the token into the form.
func writeCSRFCookie(w http.ResponseWriter, r *http.Request) string {
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// ensureCSRFCookie returns the current CSRF token, minting one if the
// browser does not have it yet.
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return writeCSRFCookie(w, r)
}

// checkCSRF validates the double-submit pair on a form post.
func checkCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	field := r.PostFormValue(csrfFieldName)
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(field)) == 1
}
