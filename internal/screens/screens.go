// Package screens holds the data side of every portal page: each controller
// checks the caller's role, fetches what the page shows, and returns a view
// plus, where a page would navigate, the target path.
package screens

import (
	"context"
	"errors"

	"github.com/terra-clan/assessment-portal/internal/models"
	"github.com/terra-clan/assessment-portal/internal/session"
)

// API is the platform client as used by the screens. *client.Client implements it.
type API interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Signup(ctx context.Context, req models.SignupRequest) error
	SetPassword(ctx context.Context, password string) error
	GoogleLoginURL(role models.Role) string
	PublicStart(ctx context.Context, req models.PublicStartRequest) (*models.PublicStartResponse, error)

	ListAssessments(ctx context.Context) ([]models.Assessment, error)
	ListMyAssessments(ctx context.Context) ([]models.Assessment, error)
	GetAssessment(ctx context.Context, id string) (*models.Assessment, error)
	CreateAssessment(ctx context.Context, req models.CreateAssessmentRequest) (string, error)
	UpdateAssessment(ctx context.Context, id string, req models.UpdateAssessmentRequest) error
	DeleteAssessment(ctx context.Context, id string) error
	GetResult(ctx context.Context, id string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, id string) ([]models.Submission, error)
	MySubmissions(ctx context.Context) ([]models.Submission, error)

	AvailableInterviews(ctx context.Context) ([]models.Interview, error)
	MyInterviews(ctx context.Context) ([]models.Interview, error)
	BookInterview(ctx context.Context, id string) error
	CancelInterview(ctx context.Context, id string) error
	CreateSlot(ctx context.Context, req models.CreateSlotRequest) error
	CompleteInterview(ctx context.Context, id, notes string) error
}

// ErrValidation matches every FormError
var ErrValidation = errors.New("validation failed")

// FormError is a user input problem, reported before any request is made
type FormError struct {
	Message string
}

func (e *FormError) Error() string { return e.Message }

func (e *FormError) Unwrap() error { return ErrValidation }

func formError(msg string) error { return &FormError{Message: msg} }

// Action is what a card's button does
type Action struct {
	Label    string `json:"label"`
	Path     string `json:"path,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// base is shared by every controller
type base struct {
	sess *session.Session
	api  API
}

var interviewerRoles = []models.Role{models.RoleInterviewer, models.RoleAdmin}

func (b base) requireCandidate() error {
	return b.sess.RequireRole(models.RoleCandidate)
}

func (b base) requireInterviewer() error {
	return b.sess.RequireRole(interviewerRoles...)
}
