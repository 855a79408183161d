package auth

import (
	"net/http"
	"time"
)

// Cookie names.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// Cookies writes the token cookies. All of them are HttpOnly with path "/".
type Cookies struct {
	// Secure adds the Secure attribute. Off in development so plain-HTTP
	// localhost works.
	Secure bool
}

// SetAccess sets the access token cookie with Max-Age equal to ttl.
func (c Cookies) SetAccess(w http.ResponseWriter, token string, ttl time.Duration) {
	c.set(w, AccessCookie, token, maxAge(ttl))
}

// SetRefresh sets the refresh token cookie with Max-Age equal to ttl.
func (c Cookies) SetRefresh(w http.ResponseWriter, token string, ttl time.Duration) {
	c.set(w, RefreshCookie, token, maxAge(ttl))
}

// maxAge converts ttl to whole seconds, rounding up. Zero would drop the
// attribute and turn the cookie into a session cookie.
func maxAge(ttl time.Duration) int {
	return int((ttl + time.Second - 1) / time.Second)
}

// Clear expires both token cookies.
func (c Cookies) Clear(w http.ResponseWriter) {
	// net/http renders MaxAge < 0 as "Max-Age=0".
	c.set(w, AccessCookie, "", -1)
	c.set(w, RefreshCookie, "", -1)
}

func (c Cookies) set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func readCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
