package screens

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/assessment-portal/internal/models"
	"github.com/terra-clan/assessment-portal/internal/phase"
	"github.com/terra-clan/assessment-portal/internal/session"
)

// RecentLimit is how many cards the dashboard shows before "view all"
const RecentLimit = 5

// CardView is a series card with its button
type CardView struct {
	phase.Card
	Action Action `json:"action"`
}

// fetchCatalog loads all assessments and the caller's submissions concurrently
func (b base) fetchCatalog(ctx context.Context) ([]models.Assessment, []models.Submission, error) {
	var (
		assessments []models.Assessment
		submissions []models.Submission
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		assessments, err = b.api.ListAssessments(gctx)
		return err
	})
	g.Go(func() (err error) {
		submissions, err = b.api.MySubmissions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return assessments, submissions, nil
}

// CandidateDashboard is the candidate landing page
type CandidateDashboard struct {
	base
}

// DashboardView is what the candidate dashboard shows
type DashboardView struct {
	Available int        `json:"available"`
	Completed int        `json:"completed"`
	Recent    []CardView `json:"recent"`
	HasMore   bool       `json:"has_more"`
}

// NewCandidateDashboard creates the candidate dashboard controller
func NewCandidateDashboard(sess *session.Session, api API) *CandidateDashboard {
	return &CandidateDashboard{base{sess: sess, api: api}}
}

// Load builds the dashboard. Failed series link to their result.
func (d *CandidateDashboard) Load(ctx context.Context) (*DashboardView, error) {
	if err := d.requireCandidate(); err != nil {
		return nil, err
	}

	assessments, submissions, err := d.fetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	cards := phase.Resolve(assessments, submissions, phase.Dashboard)
	view := &DashboardView{
		Available: len(cards),
		Completed: phase.CompletedCount(submissions),
		HasMore:   len(cards) > RecentLimit,
		Recent:    make([]CardView, 0, RecentLimit),
	}
	for i, c := range cards {
		if i == RecentLimit {
			break
		}
		view.Recent = append(view.Recent, CardView{Card: c, Action: dashboardAction(c)})
	}
	return view, nil
}

func dashboardAction(c phase.Card) Action {
	switch c.Status {
	case phase.StatusCompleted, phase.StatusFailed:
		return Action{Label: "View Result", Path: models.ResultPath(c.ID)}
	case phase.StatusResume:
		return Action{Label: "Resume", Path: models.TakePath(c.ID)}
	default:
		return Action{Label: "Start Test", Path: models.TakePath(c.ID)}
	}
}

// CandidateAssessments is the full assessment catalog for a candidate
type CandidateAssessments struct {
	base
}

// NewCandidateAssessments creates the catalog controller
func NewCandidateAssessments(sess *session.Session, api API) *CandidateAssessments {
	return &CandidateAssessments{base{sess: sess, api: api}}
}

// Load returns one card per series. A failed phase keeps its earlier status here.
func (c *CandidateAssessments) Load(ctx context.Context) ([]CardView, error) {
	if err := c.requireCandidate(); err != nil {
		return nil, err
	}

	assessments, submissions, err := c.fetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	cards := phase.Resolve(assessments, submissions, phase.Catalog)
	views := make([]CardView, 0, len(cards))
	for _, card := range cards {
		views = append(views, CardView{Card: card, Action: catalogAction(card)})
	}
	return views, nil
}

func catalogAction(c phase.Card) Action {
	switch c.Status {
	case phase.StatusCompleted:
		return Action{Label: "All Phases Completed", Disabled: true}
	case phase.StatusResume:
		return Action{Label: "Resume Next Phase", Path: models.TakePath(c.ID)}
	default:
		return Action{Label: "Start Assessment", Path: models.TakePath(c.ID)}
	}
}

// Result shows a candidate's score for one assessment
type Result struct {
	base
}

// ResultView is the result page
type ResultView struct {
	Submission    *models.Submission `json:"submission"`
	Percentage    int                `json:"percentage"`
	Passed        bool               `json:"passed"`
	NextPhasePath string             `json:"next_phase_path,omitempty"`
}

// NewResult creates the result controller
func NewResult(sess *session.Session, api API) *Result {
	return &Result{base{sess: sess, api: api}}
}

// Load fetches the caller's result for assessment id
func (r *Result) Load(ctx context.Context, id string) (*ResultView, error) {
	if err := r.sess.RequireRole(); err != nil {
		return nil, err
	}

	sub, err := r.api.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &ResultView{
		Submission: sub,
		Percentage: sub.Percentage(),
		Passed:     sub.Passed,
	}
	if sub.NextPhaseUnlocked && sub.NextPhaseID != "" {
		view.NextPhasePath = models.TakePath(sub.NextPhaseID)
	}
	return view, nil
}

// CandidateInterviews lists open slots and the candidate's bookings
type CandidateInterviews struct {
	base
}

// CandidateInterviewsView is the candidate interviews page
type CandidateInterviewsView struct {
	Available []models.Interview `json:"available"`
	Mine      []models.Interview `json:"mine"`
	Notice    string             `json:"notice,omitempty"`
}

// NewCandidateInterviews creates the candidate interviews controller
func NewCandidateInterviews(sess *session.Session, api API) *CandidateInterviews {
	return &CandidateInterviews{base{sess: sess, api: api}}
}

// Load fetches open slots and bookings concurrently
func (c *CandidateInterviews) Load(ctx context.Context) (*CandidateInterviewsView, error) {
	if err := c.requireCandidate(); err != nil {
		return nil, err
	}

	view := &CandidateInterviewsView{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view.Available, err = c.api.AvailableInterviews(gctx)
		return err
	})
	g.Go(func() (err error) {
		view.Mine, err = c.api.MyInterviews(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// Book books slot id and returns the refreshed page
func (c *CandidateInterviews) Book(ctx context.Context, id string) (*CandidateInterviewsView, error) {
	if err := c.requireCandidate(); err != nil {
		return nil, err
	}
	if err := c.api.BookInterview(ctx, id); err != nil {
		return nil, err
	}
	return c.reload(ctx, "Interview booked successfully!")
}

// Cancel cancels booking id and returns the refreshed page
func (c *CandidateInterviews) Cancel(ctx context.Context, id string) (*CandidateInterviewsView, error) {
	if err := c.requireCandidate(); err != nil {
		return nil, err
	}
	if err := c.api.CancelInterview(ctx, id); err != nil {
		return nil, err
	}
	return c.reload(ctx, "Interview cancelled successfully")
}

func (c *CandidateInterviews) reload(ctx context.Context, notice string) (*CandidateInterviewsView, error) {
	view, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	view.Notice = notice
	return view, nil
}
