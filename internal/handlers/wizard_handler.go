package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"swimintake/internal/models"
	"swimintake/internal/security"
	"swimintake/internal/service"
	"swimintake/internal/validation"
)

// WizardHandler serves the intake wizard JSON API and the results page
type WizardHandler struct {
	wizard    *service.WizardService
	csrf      *security.CSRFGenerator
	templates *template.Template
	logger    *zap.Logger
	now       func() time.Time
}

// NewWizardHandler creates a new wizard handler
func NewWizardHandler(wizard *service.WizardService, csrf *security.CSRFGenerator, templates *template.Template, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{
		wizard:    wizard,
		csrf:      csrf,
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins a new wizard run and sets the session cookie
func (h *WizardHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess, err := h.wizard.Start(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Error starting wizard session", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.WizardCookie, sess.ID, sess.ExpiresAt))
	h.respondSession(w, http.StatusCreated, sess)
}

// Get returns the current wizard state
func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.wizard.Get(r.Context(), security.CookieValue(r, security.WizardCookie))
	if err != nil {
		h.respondWizardError(w, r, err)
		return
	}
	h.respondSession(w, http.StatusOK, sess)
}

// SaveIntake stores the landing form
func (h *WizardHandler) SaveIntake(w http.ResponseWriter, r *http.Request) {
	var in models.Intake
	if !decodeJSON(w, r, &in) {
		return
	}
	h.apply(w, r, func(id string) (*models.WizardSession, error) {
		return h.wizard.SaveIntake(r.Context(), id, in)
	})
}

type matchRequest struct {
	Answer models.AnswerKey `json:"answer"`
}

// AnswerMatch answers the current match question
func (h *WizardHandler) AnswerMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.apply(w, r, func(id string) (*models.WizardSession, error) {
		return h.wizard.AnswerMatch(r.Context(), id, req.Answer)
	})
}

type ageRequest struct {
	Birthday      string `json:"birthday"`
	ParentInWater *bool  `json:"parent_in_water"`
}

// SetAge records the birthday and, for toddlers, the parent-in-water answer.
// Either field may be sent on its own.
func (h *WizardHandler) SetAge(w http.ResponseWriter, r *http.Request) {
	var req ageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var dob time.Time
	if req.Birthday != "" {
		var err error
		dob, err = time.Parse(time.DateOnly, req.Birthday)
		if err != nil {
			h.respondWizardError(w, r, validation.ValidationError{Field: "birthday", Message: "birthday must be YYYY-MM-DD"})
			return
		}
	}

	h.apply(w, r, func(id string) (*models.WizardSession, error) {
		var (
			sess *models.WizardSession
			err  error
		)
		if req.Birthday != "" {
			if sess, err = h.wizard.SetBirthday(r.Context(), id, dob); err != nil {
				return nil, err
			}
		}
		if req.ParentInWater != nil {
			if sess, err = h.wizard.SetParentInWater(r.Context(), id, *req.ParentInWater); err != nil {
				return nil, err
			}
		}
		if sess == nil {
			return h.wizard.Get(r.Context(), id)
		}
		return sess, nil
	})
}

// ContinueAge leaves the age step
func (h *WizardHandler) ContinueAge(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(id string) (*models.WizardSession, error) {
		return h.wizard.ProceedAge(r.Context(), id)
	})
}

type skillRequest struct {
	Yes bool `json:"yes"`
}

// AnswerSkill answers the current skill check
func (h *WizardHandler) AnswerSkill(w http.ResponseWriter, r *http.Request) {
	var req skillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.apply(w, r, func(id string) (*models.WizardSession, error) {
		return h.wizard.AnswerSkill(r.Context(), id, req.Yes)
	})
}

type enduranceRequest struct {
	Strong bool `json:"strong"`
}

// AnswerEndurance answers the endurance question
func (h *WizardHandler) AnswerEndurance(w http.ResponseWriter, r *http.Request) {
	var req enduranceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.apply(w, r, func(id string) (*models.WizardSession, error) {
		return h.wizard.AnswerEndurance(r.Context(), id, req.Strong)
	})
}

type commentsRequest struct {
	Comments string `json:"comments"`
}

// SetComments stores the optional comments
func (h *WizardHandler) SetComments(w http.ResponseWriter, r *http.Request) {
	var req commentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.apply(w, r, func(id string) (*models.WizardSession, error) {
		return h.wizard.SetComments(r.Context(), id, req.Comments)
	})
}

// Back returns to the previous step
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(id string) (*models.WizardSession, error) {
		return h.wizard.Back(r.Context(), id)
	})
}

// Redo restarts the match quiz or the level finder from the results page
func (h *WizardHandler) Redo(w http.ResponseWriter, r *http.Request) {
	part := r.PathValue("part")
	h.apply(w, r, func(id string) (*models.WizardSession, error) {
		switch part {
		case "match":
			return h.wizard.RedoMatch(r.Context(), id)
		case "level":
			return h.wizard.RedoLevel(r.Context(), id)
		}
		return nil, validation.ValidationError{Field: "part", Message: "part must be match or level"}
	})
}

// Reset discards every answer
func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(id string) (*models.WizardSession, error) {
		return h.wizard.Reset(r.Context(), id)
	})
}

// ShowResults moves to the results step, sending the summary on the first visit
func (h *WizardHandler) ShowResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.wizard.ShowResults(r.Context(), security.CookieValue(r, security.WizardCookie))
	if err != nil {
		h.respondWizardError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newResultsResponse(res))
}

// Summary returns the plain-text staff summary used by the copy button
func (h *WizardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	res, err := h.wizard.Results(r.Context(), security.CookieValue(r, security.WizardCookie))
	if err != nil {
		h.respondWizardError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(res.Summary))
}

// ResultsPage renders the results as HTML
func (h *WizardHandler) ResultsPage(w http.ResponseWriter, r *http.Request) {
	res, err := h.wizard.Results(r.Context(), security.CookieValue(r, security.WizardCookie))
	if errors.Is(err, service.ErrSessionNotFound) {
		respondWithError(w, http.StatusNotFound, ErrNoActiveIntake, "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error loading results", err)
		return
	}

	data := ResultsViewData{
		Title:   "Your Results",
		Results: newResultsResponse(res),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "results.tmpl", data); err != nil {
		h.logger.Error("Error rendering results template", zap.Error(err))
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// Catalog returns the public catalog data the wizard UI renders from
func (h *WizardHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	c := h.wizard.Catalog()
	respondJSON(w, http.StatusOK, catalogResponse{
		Locations:   c.Locations(),
		Days:        c.Days(),
		TimeWindows: c.TimeWindows(),
		Questions:   c.Questions(),
		Skills:      c.Skills(),
		Prompts:     c.Prompts(),
	})
}

// apply runs a wizard operation against the cookie's session and writes the new state
func (h *WizardHandler) apply(w http.ResponseWriter, r *http.Request, op func(id string) (*models.WizardSession, error)) {
	sess, err := op(security.CookieValue(r, security.WizardCookie))
	if err != nil {
		h.respondWizardError(w, r, err)
		return
	}
	h.respondSession(w, http.StatusOK, sess)
}

func (h *WizardHandler) respondSession(w http.ResponseWriter, status int, sess *models.WizardSession) {
	token, err := h.csrf.GenerateToken(wizardScope, sess.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}
	respondJSON(w, status, wizardResponse{
		Stage:     sess.State.Stage,
		State:     sess.State,
		Step:      newStepView(h.wizard.Catalog(), sess.State, h.now()),
		CSRFToken: token,
		ExpiresAt: sess.ExpiresAt,
	})
}

// tooYoungBody is the 422 response for swimmers under the minimum age
type tooYoungBody struct {
	Error string `json:"error"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *WizardHandler) respondWizardError(w http.ResponseWriter, r *http.Request, err error) {
	if errs, ok := validation.AsErrors(err); ok {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Please check the highlighted fields", Fields: errs})
		return
	}

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		http.SetCookie(w, security.CreateDeleteCookie(r, security.WizardCookie))
		respondJSONError(w, http.StatusNotFound, ErrNoActiveIntake, "", nil)
	case errors.Is(err, service.ErrWrongStage):
		respondJSONError(w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, service.ErrTooYoung):
		prompts := h.wizard.Catalog().Prompts()
		respondJSON(w, http.StatusUnprocessableEntity, tooYoungBody{
			Error: err.Error(),
			Title: prompts.TooYoungTitle,
			Body:  prompts.TooYoungBody,
		})
	default:
		respondJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Wizard operation failed", err)
	}
}

// decodeJSON reads a bounded JSON body into v, answering 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return false
	}
	return true
}
