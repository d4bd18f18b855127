package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Cookie names
const (
	WizardCookie = "intake_session"
	StaffCookie  = "staff_session"
)

// GenerateSessionID creates a new UUID for session identification
func GenerateSessionID() string {
	return uuid.New().String()
}

// IsSecureRequest reports whether the request arrived over HTTPS, directly or
// through a proxy that sets X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if r.Header.Get("X-Forwarded-Proto") == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// The staff token never leaves /staff and is not sent on cross-site navigation.
func cookieScope(name string) (string, http.SameSite) {
	if name == StaffCookie {
		return "/staff", http.SameSiteStrictMode
	}
	return "/", http.SameSiteLaxMode
}

func baseCookie(r *http.Request, name, value string) *http.Cookie {
	path, sameSite := cookieScope(name)
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: sameSite,
	}
}

// CreateSessionCookie builds the wizard or staff cookie expiring at expires
func CreateSessionCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	c := baseCookie(r, name, value)
	c.Expires = expires
	return c
}

// CreateDeleteCookie builds a cookie that clears name in the browser
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	c := baseCookie(r, name, "")
	c.MaxAge = -1
	return c
}

// CookieValue returns the named cookie's value or "" when absent
func CookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
