package handlers

import (
	"time"

	"swimintake/internal/catalog"
	"swimintake/internal/leveling"
	"swimintake/internal/models"
	"swimintake/internal/service"
)

// wizardResponse is returned by every wizard API call
type wizardResponse struct {
	Stage     models.Stage       `json:"stage"`
	State     models.WizardState `json:"state"`
	Step      *stepView          `json:"step,omitempty"`
	CSRFToken string             `json:"csrf_token,omitempty"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// stepView describes the question the current stage is asking
type stepView struct {
	Number   int               `json:"number,omitempty"`
	Total    int               `json:"total,omitempty"`
	Question *catalog.Question `json:"question,omitempty"`
	Skill    *catalog.Skill    `json:"skill,omitempty"`
	Bracket  string            `json:"bracket,omitempty"`
	Prompt   string            `json:"prompt,omitempty"`
}

func newStepView(c *catalog.Catalog, st models.WizardState, now time.Time) *stepView {
	switch st.Stage {
	case models.StageMatch:
		questions := c.Questions()
		if st.MatchStep < 0 || st.MatchStep >= len(questions) {
			return nil
		}
		return &stepView{Number: st.MatchStep + 1, Total: len(questions), Question: &questions[st.MatchStep]}
	case models.StageAge:
		v := &stepView{}
		if bracket := leveling.AgeBracket(st.Level.Birthday, now); bracket != leveling.BracketUnknown {
			v.Bracket = bracket.String()
			if bracket == leveling.BracketToddler {
				v.Prompt = c.Prompts().ParentInWater
			}
		}
		return v
	case models.StageSkills:
		skills := c.Skills()
		if st.SkillIndex < 0 || st.SkillIndex >= len(skills) {
			return nil
		}
		return &stepView{Number: st.SkillIndex + 1, Total: len(skills), Skill: &skills[st.SkillIndex]}
	case models.StageEndurance:
		return &stepView{Prompt: c.Prompts().Endurance}
	}
	return nil
}

// resultsResponse is the JSON view of the results page. Missing parts are
// reported with complete:false rather than as errors.
type resultsResponse struct {
	Stage      models.Stage      `json:"stage"`
	Complete   bool              `json:"complete"`
	Match      matchView         `json:"match"`
	Level      levelView         `json:"level"`
	Summary    string            `json:"summary"`
	PortalURL  string            `json:"portal_url,omitempty"`
	Location   *models.Location  `json:"location,omitempty"`
	SendStatus models.SendStatus `json:"send_status,omitempty"`
	Reference  string            `json:"reference,omitempty"`
}

type matchView struct {
	Complete     bool                 `json:"complete"`
	Scores       map[string]int       `json:"scores"`
	InternalCode string               `json:"internal_code,omitempty"`
	Instructors  []catalog.Instructor `json:"instructors,omitempty"`
}

type levelView struct {
	Complete    bool   `json:"complete"`
	TooYoung    bool   `json:"too_young,omitempty"`
	Key         string `json:"key,omitempty"`
	Title       string `json:"title,omitempty"`
	Ratio       string `json:"ratio,omitempty"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func newResultsResponse(res *service.Results) resultsResponse {
	r := res.Report
	out := resultsResponse{
		Stage:      res.Stage,
		Complete:   r.Match.Complete && r.Level.Complete(),
		Summary:    res.Summary,
		PortalURL:  r.PortalURL(),
		Location:   r.Location,
		SendStatus: res.SendStatus,
		Match: matchView{
			Complete:    r.Match.Complete,
			Scores:      make(map[string]int, models.NumParentTypes),
			Instructors: r.Personas,
		},
		Level: levelView{
			Complete: r.Level.Complete(),
			TooYoung: r.Level.TooYoung,
		},
	}
	for _, p := range models.ParentTypes {
		out.Match.Scores[r.ScoreLabels[p]] = r.Match.Scores[p]
	}
	if r.Match.Complete {
		out.Match.InternalCode = r.Match.InternalCode
	}
	if r.Level.Complete() {
		out.Level.Key = r.Level.Level.String()
		out.Level.Title = r.LevelInfo.Title
		out.Level.Ratio = r.LevelInfo.Ratio
		out.Level.Description = r.LevelInfo.Description
		out.Level.Reason = r.Level.Reason
	}
	if res.Submission != nil {
		out.Reference = res.Submission.Reference
	}
	return out
}

// catalogResponse is the public part of the catalog the wizard UI needs
type catalogResponse struct {
	Locations   []models.Location  `json:"locations"`
	Days        []string           `json:"days"`
	TimeWindows []string           `json:"time_windows"`
	Questions   []catalog.Question `json:"questions"`
	Skills      []catalog.Skill    `json:"skills"`
	Prompts     catalog.Prompts    `json:"prompts"`
}

type ResultsViewData struct {
	Title   string
	Results resultsResponse
}

type StaffLoginViewData struct {
	Title string
	Error string
}

type StaffSubmissionsViewData struct {
	Title       string
	Submissions []*models.Submission
	Counts      map[models.SubmissionStatus]int
	Status      models.SubmissionStatus
	Statuses    []models.SubmissionStatus
	CSRFToken   string
	Flash       string
}
