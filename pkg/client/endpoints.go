package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/terra-clan/assessment-portal/internal/models"
)

// Auth

// Login exchanges credentials for a token and role
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup registers a new account
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) error {
	return c.do(ctx, http.MethodPost, "/signup", req, nil)
}

// SetPassword sets a password for an account created through OAuth
func (c *Client) SetPassword(ctx context.Context, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/set-password", models.SetPasswordRequest{Password: password}, nil)
}

// GoogleLoginURL returns the OAuth entry point for the given role
func (c *Client) GoogleLoginURL(role models.Role) string {
	return fmt.Sprintf("%s/auth/google/login?role=%s", c.baseURL, url.QueryEscape(string(role)))
}

// PublicStart identifies an anonymous candidate for a shared assessment
func (c *Client) PublicStart(ctx context.Context, req models.PublicStartRequest) (*models.PublicStartResponse, error) {
	var resp models.PublicStartResponse
	if err := c.do(ctx, http.MethodPost, "/api/public/start", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Assessments

// ListAssessments returns every assessment visible to the caller
func (c *Client) ListAssessments(ctx context.Context) ([]models.Assessment, error) {
	var resp []models.Assessment
	if err := c.do(ctx, http.MethodGet, "/api/assessments", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListMyAssessments returns the assessments authored by the caller
func (c *Client) ListMyAssessments(ctx context.Context) ([]models.Assessment, error) {
	var resp []models.Assessment
	if err := c.do(ctx, http.MethodGet, "/api/assessments/my", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetAssessment retrieves an assessment by ID
func (c *Client) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	var resp models.Assessment
	if err := c.do(ctx, http.MethodGet, "/api/assessments/"+escape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateAssessment creates one assessment phase and returns its ID
func (c *Client) CreateAssessment(ctx context.Context, req models.CreateAssessmentRequest) (string, error) {
	var resp models.CreatedResponse
	if err := c.do(ctx, http.MethodPost, "/api/assessments", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &Error{Status: http.StatusOK, Message: "create assessment: response carried no id"}
	}
	return resp.ID, nil
}

// UpdateAssessment replaces the editable fields of an assessment
func (c *Client) UpdateAssessment(ctx context.Context, id string, req models.UpdateAssessmentRequest) error {
	return c.do(ctx, http.MethodPut, "/api/assessments/"+escape(id), req, nil)
}

// DeleteAssessment removes an assessment
func (c *Client) DeleteAssessment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/assessments/"+escape(id), nil, nil)
}

// GetResult returns the caller's scored submission for an assessment
func (c *Client) GetResult(ctx context.Context, id string) (*models.Submission, error) {
	var resp models.Submission
	if err := c.do(ctx, http.MethodGet, "/api/assessments/"+escape(id)+"/result", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListSubmissions returns all submissions for an assessment (interviewer view)
func (c *Client) ListSubmissions(ctx context.Context, id string) ([]models.Submission, error) {
	var resp []models.Submission
	if err := c.do(ctx, http.MethodGet, "/api/assessments/"+escape(id)+"/submissions", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SubmitAssessment records the caller's answers
func (c *Client) SubmitAssessment(ctx context.Context, id string, req models.SubmitRequest) (*models.SubmitResult, error) {
	var resp models.SubmitResult
	if err := c.do(ctx, http.MethodPost, "/api/assessments/"+escape(id)+"/submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MySubmissions returns the caller's own submissions
func (c *Client) MySubmissions(ctx context.Context) ([]models.Submission, error) {
	var resp []models.Submission
	if err := c.do(ctx, http.MethodGet, "/api/submissions/me", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Interviews

// AvailableInterviews lists bookable slots
func (c *Client) AvailableInterviews(ctx context.Context) ([]models.Interview, error) {
	var resp []models.Interview
	if err := c.do(ctx, http.MethodGet, "/api/interviews/available", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// MyInterviews lists the caller's interviews (booked or owned)
func (c *Client) MyInterviews(ctx context.Context) ([]models.Interview, error) {
	var resp []models.Interview
	if err := c.do(ctx, http.MethodGet, "/api/interviews/my", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// BookInterview books an available slot for the caller
func (c *Client) BookInterview(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/interviews/"+escape(id)+"/book", struct{}{}, nil)
}

// CancelInterview cancels a booking or deletes a slot
func (c *Client) CancelInterview(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/interviews/"+escape(id), nil, nil)
}

// CreateSlot creates an available interview slot
func (c *Client) CreateSlot(ctx context.Context, req models.CreateSlotRequest) error {
	return c.do(ctx, http.MethodPost, "/api/interviews/slots", req, nil)
}

// CompleteInterview marks an interview completed with notes
func (c *Client) CompleteInterview(ctx context.Context, id, notes string) error {
	return c.do(ctx, http.MethodPost, "/api/interviews/"+escape(id)+"/complete", models.CompleteInterviewRequest{Notes: notes}, nil)
}
