package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"swimintake/internal/models"
	"swimintake/internal/repository"
	"swimintake/internal/security"
	"swimintake/internal/service"
)

// staffPageSize caps the submissions shown on the staff list
const staffPageSize = 100

// StaffHandler serves the staff login and the submission log
type StaffHandler struct {
	auth      *security.StaffAuth
	intake    *service.IntakeService
	csrf      *security.CSRFGenerator
	templates *template.Template
	logger    *zap.Logger
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(auth *security.StaffAuth, intake *service.IntakeService, csrf *security.CSRFGenerator, templates *template.Template, logger *zap.Logger) *StaffHandler {
	return &StaffHandler{
		auth:      auth,
		intake:    intake,
		csrf:      csrf,
		templates: templates,
		logger:    logger,
	}
}

// ShowLogin displays the staff login form
func (h *StaffHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, http.StatusOK, "")
}

// Login checks the staff password and sets the staff token cookie
func (h *StaffHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	token, expires, err := h.auth.Login(r.FormValue("password"))
	if errors.Is(err, security.ErrInvalidCredentials) {
		h.logger.Warn("Staff login failed", zap.String("ip", security.GetClientIP(r)))
		h.renderLogin(w, http.StatusUnauthorized, "Incorrect password")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error issuing staff token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.StaffCookie, token, expires))
	http.Redirect(w, r, "/staff/submissions", http.StatusSeeOther)
}

// Logout clears the staff token cookie
func (h *StaffHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, security.StaffCookie))
	http.Redirect(w, r, "/staff/login", http.StatusSeeOther)
}

// ListSubmissions renders the submission log, newest first
func (h *StaffHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	status := models.SubmissionStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid status filter", "", nil)
		return
	}

	subs, err := h.intake.List(r.Context(), repository.SubmissionFilter{Status: status, Limit: staffPageSize})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing submissions", err)
		return
	}
	counts, err := h.intake.Counts(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error counting submissions", err)
		return
	}

	var token string
	if claims := GetStaffFromContext(r.Context()); claims != nil {
		token, _ = h.csrf.GenerateToken(staffScope, claims.ID)
	}

	data := StaffSubmissionsViewData{
		Title:       "Intake Submissions",
		Submissions: subs,
		Counts:      counts,
		Status:      status,
		Statuses:    []models.SubmissionStatus{models.SubmissionSent, models.SubmissionFailed, models.SubmissionPending},
		CSRFToken:   token,
		Flash:       r.URL.Query().Get("flash"),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "staff_submissions.tmpl", data); err != nil {
		h.logger.Error("Error rendering submissions template", zap.Error(err))
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// GetSubmission returns one stored submission as JSON
func (h *StaffHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(w, r)
	if !ok {
		return
	}

	sub, err := h.intake.Get(r.Context(), id)
	if errors.Is(err, service.ErrSubmissionNotFound) {
		respondJSONError(w, http.StatusNotFound, "Submission not found", "", nil)
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Error loading submission", err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

// Resend retries the email of a pending or failed submission
func (h *StaffHandler) Resend(w http.ResponseWriter, r *http.Request) {
	id, ok := submissionID(w, r)
	if !ok {
		return
	}

	sub, err := h.intake.Resend(r.Context(), id)
	var (
		status = http.StatusOK
		msg    string
	)
	switch {
	case err == nil:
		msg = "Submission " + sub.Reference + " resent"
	case errors.Is(err, service.ErrSubmissionNotFound):
		status, msg = http.StatusNotFound, "Submission not found"
	case errors.Is(err, service.ErrAlreadySent):
		status, msg = http.StatusConflict, "Submission was already sent"
	case errors.Is(err, service.ErrSendFailed):
		status, msg = http.StatusBadGateway, "Email send failed again"
	default:
		respondJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Error resending submission", err)
		return
	}

	if wantsJSON(r) {
		if err != nil {
			respondJSONError(w, status, msg, "", nil)
			return
		}
		respondJSON(w, status, sub)
		return
	}
	http.Redirect(w, r, "/staff/submissions?flash="+url.QueryEscape(msg), http.StatusSeeOther)
}

func (h *StaffHandler) renderLogin(w http.ResponseWriter, status int, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := StaffLoginViewData{Title: "Staff Login", Error: errMsg}
	if err := h.templates.ExecuteTemplate(w, "staff_login.tmpl", data); err != nil {
		h.logger.Error("Error rendering login template", zap.Error(err))
	}
}

func submissionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondJSONError(w, http.StatusBadRequest, "Invalid submission ID", "", nil)
		return 0, false
	}
	return id, true
}
