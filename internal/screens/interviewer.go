package screens

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/assessment-portal/internal/authoring"
	"github.com/terra-clan/assessment-portal/internal/models"
	"github.com/terra-clan/assessment-portal/internal/phase"
	"github.com/terra-clan/assessment-portal/internal/session"
)

// InterviewerDashboard is the interviewer landing page
type InterviewerDashboard struct {
	base
}

// InterviewerDashboardView is what the interviewer dashboard shows
type InterviewerDashboardView struct {
	ActiveTests int                 `json:"active_tests"`
	Series      int                 `json:"series"`
	Recent      []models.Assessment `json:"recent"`
	HasMore     bool                `json:"has_more"`
	Notice      string              `json:"notice,omitempty"`
}

// NewInterviewerDashboard creates the interviewer dashboard controller
func NewInterviewerDashboard(sess *session.Session, api API) *InterviewerDashboard {
	return &InterviewerDashboard{base{sess: sess, api: api}}
}

// Load lists the caller's series roots, most recent first as returned by the API
func (d *InterviewerDashboard) Load(ctx context.Context) (*InterviewerDashboardView, error) {
	if err := d.requireInterviewer(); err != nil {
		return nil, err
	}

	mine, err := d.api.ListMyAssessments(ctx)
	if err != nil {
		return nil, err
	}

	roots := phase.Roots(mine)
	view := &InterviewerDashboardView{
		ActiveTests: len(mine),
		Series:      len(roots),
		HasMore:     len(roots) > RecentLimit,
		Recent:      roots,
	}
	if len(roots) > RecentLimit {
		view.Recent = roots[:RecentLimit]
	}
	return view, nil
}

// Delete removes an assessment and returns the refreshed dashboard
func (d *InterviewerDashboard) Delete(ctx context.Context, id string) (*InterviewerDashboardView, error) {
	if err := d.requireInterviewer(); err != nil {
		return nil, err
	}
	if err := d.api.DeleteAssessment(ctx, id); err != nil {
		return nil, err
	}
	view, err := d.Load(ctx)
	if err != nil {
		return nil, err
	}
	view.Notice = "Assessment deleted successfully"
	return view, nil
}

// InterviewerAssessments lists and shares the caller's series
type InterviewerAssessments struct {
	base
	publicBaseURL string
}

// NewInterviewerAssessments creates the controller. publicBaseURL prefixes share links.
func NewInterviewerAssessments(sess *session.Session, api API, publicBaseURL string) *InterviewerAssessments {
	return &InterviewerAssessments{
		base:          base{sess: sess, api: api},
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// Load returns series roots whose title contains search, case-insensitively
func (a *InterviewerAssessments) Load(ctx context.Context, search string) ([]models.Assessment, error) {
	if err := a.requireInterviewer(); err != nil {
		return nil, err
	}

	mine, err := a.api.ListMyAssessments(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Assessment, 0, len(mine))
	for _, as := range phase.Roots(mine) {
		if needle == "" || strings.Contains(strings.ToLower(as.Title), needle) {
			out = append(out, as)
		}
	}
	return out, nil
}

// ShareURL is the public link candidates use to start assessment id
func (a *InterviewerAssessments) ShareURL(id string) string {
	return a.publicBaseURL + "/public/assessments/" + id
}

// Delete removes an assessment and returns the refreshed, unfiltered list
func (a *InterviewerAssessments) Delete(ctx context.Context, id string) ([]models.Assessment, error) {
	if err := a.requireInterviewer(); err != nil {
		return nil, err
	}
	if err := a.api.DeleteAssessment(ctx, id); err != nil {
		return nil, err
	}
	return a.Load(ctx, "")
}

// Publish validates a draft and creates its phases
func (a *InterviewerAssessments) Publish(ctx context.Context, draft *authoring.Draft) ([]string, error) {
	if err := a.requireInterviewer(); err != nil {
		return nil, err
	}
	return authoring.Publish(ctx, a.api, draft)
}

// Submissions lists the attempts at one assessment
type Submissions struct {
	base
}

// SubmissionRow is one attempt with derived columns
type SubmissionRow struct {
	models.Submission
	DurationMinutes int `json:"duration_minutes"`
	Percentage      int `json:"percentage"`
}

// SubmissionsView is the submissions page
type SubmissionsView struct {
	Assessment *models.Assessment `json:"assessment"`
	Rows       []SubmissionRow    `json:"rows"`
	Passed     int                `json:"passed"`
}

// NewSubmissions creates the submissions controller
func NewSubmissions(sess *session.Session, api API) *Submissions {
	return &Submissions{base{sess: sess, api: api}}
}

// Load fetches the assessment and its submissions concurrently
func (s *Submissions) Load(ctx context.Context, id string) (*SubmissionsView, error) {
	if err := s.requireInterviewer(); err != nil {
		return nil, err
	}

	var (
		assessment  *models.Assessment
		submissions []models.Submission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		assessment, err = s.api.GetAssessment(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		submissions, err = s.api.ListSubmissions(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &SubmissionsView{Assessment: assessment, Rows: make([]SubmissionRow, 0, len(submissions))}
	for _, sub := range submissions {
		if sub.Passed {
			view.Passed++
		}
		view.Rows = append(view.Rows, SubmissionRow{
			Submission:      sub,
			DurationMinutes: int(math.Round(sub.TimeTaken().Minutes())),
			Percentage:      sub.Percentage(),
		})
	}
	return view, nil
}

// InterviewerInterviews manages the caller's interview slots
type InterviewerInterviews struct {
	base
}

// InterviewStats counts slots by status
type InterviewStats struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Scheduled int `json:"scheduled"`
	Completed int `json:"completed"`
}

// InterviewerInterviewsView is the interviewer interviews page
type InterviewerInterviewsView struct {
	Filter     string             `json:"filter"`
	Interviews []models.Interview `json:"interviews"`
	Stats      InterviewStats     `json:"stats"`
	Notice     string             `json:"notice,omitempty"`
}

// NewInterviewerInterviews creates the controller
func NewInterviewerInterviews(sess *session.Session, api API) *InterviewerInterviews {
	return &InterviewerInterviews{base{sess: sess, api: api}}
}

// Load returns slots matching filter ("" or "all" for every slot). Stats cover all slots.
func (i *InterviewerInterviews) Load(ctx context.Context, filter string) (*InterviewerInterviewsView, error) {
	if err := i.requireInterviewer(); err != nil {
		return nil, err
	}

	all, err := i.api.MyInterviews(ctx)
	if err != nil {
		return nil, err
	}

	if filter == "" {
		filter = "all"
	}
	view := &InterviewerInterviewsView{
		Filter:     filter,
		Interviews: make([]models.Interview, 0, len(all)),
		Stats:      InterviewStats{Total: len(all)},
	}
	for _, iv := range all {
		switch iv.Status {
		case models.InterviewAvailable:
			view.Stats.Available++
		case models.InterviewScheduled:
			view.Stats.Scheduled++
		case models.InterviewCompleted:
			view.Stats.Completed++
		}
		if filter == "all" || string(iv.Status) == filter {
			view.Interviews = append(view.Interviews, iv)
		}
	}
	return view, nil
}

// Complete marks interview id as done with notes
func (i *InterviewerInterviews) Complete(ctx context.Context, id, notes, filter string) (*InterviewerInterviewsView, error) {
	if err := i.requireInterviewer(); err != nil {
		return nil, err
	}
	if err := i.api.CompleteInterview(ctx, id, notes); err != nil {
		return nil, err
	}
	return i.reload(ctx, filter, "Interview marked as completed")
}

// Cancel cancels interview id
func (i *InterviewerInterviews) Cancel(ctx context.Context, id, filter string) (*InterviewerInterviewsView, error) {
	if err := i.requireInterviewer(); err != nil {
		return nil, err
	}
	if err := i.api.CancelInterview(ctx, id); err != nil {
		return nil, err
	}
	return i.reload(ctx, filter, "Interview cancelled successfully")
}

func (i *InterviewerInterviews) reload(ctx context.Context, filter, notice string) (*InterviewerInterviewsView, error) {
	view, err := i.Load(ctx, filter)
	if err != nil {
		return nil, err
	}
	view.Notice = notice
	return view, nil
}

// SlotForm is the interview slot form as entered
type SlotForm struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,datetime=15:04"`
	Duration    int    `json:"duration" validate:"gte=15,lte=240"`
	MeetingLink string `json:"meeting_link" validate:"omitempty,url"`
}

// CreateSlot publishes new interview slots
type CreateSlot struct {
	base
	location *time.Location
}

// NewCreateSlot creates the controller. Dates are read in loc, or local time when nil.
func NewCreateSlot(sess *session.Session, api API, loc *time.Location) *CreateSlot {
	if loc == nil {
		loc = time.Local
	}
	return &CreateSlot{base: base{sess: sess, api: api}, location: loc}
}

var validate = validator.New()

// Request validates the form and converts it to an API request
func (c *CreateSlot) Request(form SlotForm) (models.CreateSlotRequest, error) {
	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		errors.As(err, &verrs)
		for _, fe := range verrs {
			switch fe.Field() {
			case "Duration":
				return models.CreateSlotRequest{}, formError("Duration must be between 15 and 240 minutes")
			case "MeetingLink":
				return models.CreateSlotRequest{}, formError("Meeting link must be a valid URL")
			case "Date", "Time":
				if fe.Tag() == "datetime" {
					return models.CreateSlotRequest{}, formError("Invalid date or time")
				}
			}
		}
		return models.CreateSlotRequest{}, formError("Please fill in all required fields")
	}

	at, err := time.ParseInLocation("2006-01-02 15:04", form.Date+" "+form.Time, c.location)
	if err != nil {
		return models.CreateSlotRequest{}, formError("Invalid date or time")
	}

	return models.CreateSlotRequest{
		Title:       form.Title,
		Description: form.Description,
		Type:        form.Type,
		ScheduledAt: at.UTC(),
		Duration:    form.Duration,
		MeetingLink: form.MeetingLink,
	}, nil
}

// Submit creates the slot and returns the interviews page path
func (c *CreateSlot) Submit(ctx context.Context, form SlotForm) (string, error) {
	if err := c.requireInterviewer(); err != nil {
		return "", err
	}
	req, err := c.Request(form)
	if err != nil {
		return "", err
	}
	if err := c.api.CreateSlot(ctx, req); err != nil {
		return "", err
	}
	return "/interviewer/interviews", nil
}

// AssessmentEditor edits one existing phase
type AssessmentEditor struct {
	base
}

// NewAssessmentEditor creates the editor controller
func NewAssessmentEditor(sess *session.Session, api API) *AssessmentEditor {
	return &AssessmentEditor{base{sess: sess, api: api}}
}

// Load fetches the assessment being edited
func (e *AssessmentEditor) Load(ctx context.Context, id string) (*models.Assessment, error) {
	if err := e.requireInterviewer(); err != nil {
		return nil, err
	}
	return e.api.GetAssessment(ctx, id)
}

// Save validates and stores the update, then returns the stored assessment
func (e *AssessmentEditor) Save(ctx context.Context, id string, update models.UpdateAssessmentRequest) (*models.Assessment, error) {
	if err := e.requireInterviewer(); err != nil {
		return nil, err
	}
	if err := authoring.ValidateUpdate(update); err != nil {
		return nil, err
	}
	if err := e.api.UpdateAssessment(ctx, id, update); err != nil {
		return nil, err
	}
	return e.api.GetAssessment(ctx, id)
}
