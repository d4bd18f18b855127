package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"swimintake/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const StaffContextKey ContextKey = "staff"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	csrf  *security.CSRFGenerator
	staff *security.StaffAuth
}

// NewMiddleware creates a new middleware instance. A nil staff auth turns
// every staff route into a 404.
func NewMiddleware(csrf *security.CSRFGenerator, staff *security.StaffAuth) *Middleware {
	return &Middleware{
		csrf:  csrf,
		staff: staff,
	}
}

// RequireWizardCSRF checks the CSRF header against the wizard session cookie
func (m *Middleware) RequireWizardCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := security.CookieValue(r, security.WizardCookie)
		if !m.csrf.ValidateToken(wizardScope, sessionID, csrfToken(r)) {
			respondJSONError(w, http.StatusForbidden, ErrInvalidCSRFToken, "", nil)
			return
		}
		next(w, r)
	}
}

// RequireStaff is middleware that requires a valid staff token cookie.
// Page requests without one are sent to the login form.
func (m *Middleware) RequireStaff(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.staff == nil {
			http.NotFound(w, r)
			return
		}

		claims, err := m.staff.Verify(security.CookieValue(r, security.StaffCookie))
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, security.StaffCookie))
			if r.Method == http.MethodGet && !wantsJSON(r) {
				http.Redirect(w, r, "/staff/login", http.StatusSeeOther)
				return
			}
			respondJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), StaffContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireStaffCSRF checks the staff CSRF token, bound to the staff token ID.
// It must run inside RequireStaff.
func (m *Middleware) RequireStaffCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetStaffFromContext(r.Context())
		if claims == nil || !m.csrf.ValidateToken(staffScope, claims.ID, csrfToken(r)) {
			respondJSONError(w, http.StatusForbidden, ErrInvalidCSRFToken, "", nil)
			return
		}
		next(w, r)
	}
}

// GetStaffFromContext retrieves the staff claims from the request context
func GetStaffFromContext(ctx context.Context) *security.StaffClaims {
	claims, ok := ctx.Value(StaffContextKey).(*security.StaffClaims)
	if !ok {
		return nil
	}
	return claims
}

func csrfToken(r *http.Request) string {
	if token := r.Header.Get(security.CSRFHeader); token != "" {
		return token
	}
	return r.PostFormValue(csrfFormField)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
