package screens

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/models"
	"github.com/terra-clan/assessment-portal/internal/session"
)

// PublicStart lets an anonymous visitor start a shared assessment
type PublicStart struct {
	base
}

// NewPublicStart creates the public start controller
func NewPublicStart(sess *session.Session, api API) *PublicStart {
	return &PublicStart{base{sess: sess, api: api}}
}

// Preview returns the shared assessment for the landing page
func (p *PublicStart) Preview(ctx context.Context, id string) (*models.Assessment, error) {
	return p.api.GetAssessment(ctx, id)
}

// Start registers the visitor, stores the returned token and returns the take path
func (p *PublicStart) Start(ctx context.Context, id, name, email, phone string) (string, error) {
	name, email, phone = strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(phone)
	if name == "" || email == "" {
		return "", formError("Name and email are required")
	}

	resp, err := p.api.PublicStart(ctx, models.PublicStartRequest{
		Name:         name,
		Email:        email,
		Phone:        phone,
		AssessmentID: id,
	})
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", formError("No token received")
	}

	user := resp.User
	if user == nil {
		user = &models.User{Name: name, Email: email}
	}
	if err := p.sess.LoginUser(ctx, resp.Token, user); err != nil {
		return "", err
	}

	log.Info().Str("assessment_id", id).Str("user_id", user.ID).Msg("Public candidate started assessment")
	return models.TakePath(id), nil
}
