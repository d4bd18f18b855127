package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"swimintake/internal/security"
)

// Router collects the handlers served by the intake server. Staff may be nil
// when no staff password is configured.
type Router struct {
	Wizard      *WizardHandler
	Intake      *IntakeHandler
	Staff       *StaffHandler
	Health      *HealthHandler
	Middleware  *Middleware
	RateLimiter *security.RateLimiter
	Logger      *zap.Logger
}

// Handler registers every route and wraps the mux in request logging
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mw := rt.Middleware

	mux.HandleFunc("GET /healthz", rt.Health.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Wizard
	mux.HandleFunc("GET /api/catalog", rt.Wizard.Catalog)
	mux.HandleFunc("POST /api/wizard", rt.Wizard.Start)
	mux.HandleFunc("GET /api/wizard", rt.Wizard.Get)
	mux.HandleFunc("GET /api/wizard/summary", rt.Wizard.Summary)
	mux.HandleFunc("POST /api/wizard/intake", mw.RequireWizardCSRF(rt.Wizard.SaveIntake))
	mux.HandleFunc("POST /api/wizard/match", mw.RequireWizardCSRF(rt.Wizard.AnswerMatch))
	mux.HandleFunc("POST /api/wizard/age", mw.RequireWizardCSRF(rt.Wizard.SetAge))
	mux.HandleFunc("POST /api/wizard/age/continue", mw.RequireWizardCSRF(rt.Wizard.ContinueAge))
	mux.HandleFunc("POST /api/wizard/skills", mw.RequireWizardCSRF(rt.Wizard.AnswerSkill))
	mux.HandleFunc("POST /api/wizard/endurance", mw.RequireWizardCSRF(rt.Wizard.AnswerEndurance))
	mux.HandleFunc("POST /api/wizard/comments", mw.RequireWizardCSRF(rt.Wizard.SetComments))
	mux.HandleFunc("POST /api/wizard/results", mw.RequireWizardCSRF(rt.Wizard.ShowResults))
	mux.HandleFunc("POST /api/wizard/back", mw.RequireWizardCSRF(rt.Wizard.Back))
	mux.HandleFunc("POST /api/wizard/redo/{part}", mw.RequireWizardCSRF(rt.Wizard.Redo))
	mux.HandleFunc("POST /api/wizard/reset", mw.RequireWizardCSRF(rt.Wizard.Reset))
	mux.HandleFunc("GET /results", rt.Wizard.ResultsPage)

	// Stateless submit
	mux.Handle("POST /api/intake-submit", rt.RateLimiter.Middleware(http.HandlerFunc(rt.Intake.Submit)))

	// Staff
	if rt.Staff != nil {
		mux.HandleFunc("GET /staff/login", rt.Staff.ShowLogin)
		mux.Handle("POST /staff/login", rt.RateLimiter.Middleware(http.HandlerFunc(rt.Staff.Login)))
		mux.HandleFunc("POST /staff/logout", rt.Staff.Logout)
		mux.HandleFunc("GET /staff/submissions", mw.RequireStaff(rt.Staff.ListSubmissions))
		mux.HandleFunc("GET /staff/submissions/{id}", mw.RequireStaff(rt.Staff.GetSubmission))
		mux.HandleFunc("POST /staff/submissions/{id}/resend", mw.RequireStaff(mw.RequireStaffCSRF(rt.Staff.Resend)))
	}

	return Logging(rt.Logger, mux)
}
