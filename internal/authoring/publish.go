package authoring

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/models"
)

// Creator creates one assessment and returns its id
type Creator interface {
	CreateAssessment(ctx context.Context, req models.CreateAssessmentRequest) (string, error)
}

// Publish validates d and creates its phases, last phase first, so every
// phase can point at the one after it. It returns the ids in phase order and
// stops at the first failure; phases created before it are left in place.
func Publish(ctx context.Context, creator Creator, d *Draft) ([]string, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	ids := make([]string, len(d.Phases))
	next := ""
	for i := len(d.Phases) - 1; i >= 0; i-- {
		req, err := d.phaseRequest(i, next)
		if err != nil {
			return nil, err
		}

		id, err := creator.CreateAssessment(ctx, req)
		if err != nil {
			log.Error().Err(err).Str("title", req.Title).Int("phase", i+1).Msg("Failed to create phase")
			return nil, fmt.Errorf("failed to create phase %d: %w", i+1, err)
		}

		log.Debug().Str("id", id).Int("phase", i+1).Str("next_phase_id", next).Msg("Phase created")
		ids[i] = id
		next = id
	}

	log.Info().Str("title", d.Title).Strs("ids", ids).Msg("Assessment series published")
	return ids, nil
}
