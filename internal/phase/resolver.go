// Package phase resolves multi-phase assessment series into one display card
// per series: the phase a candidate should see next and what they can do with it.
package phase

import (
	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/models"
)

// Status is the action state of a series card
type Status string

const (
	StatusStart     Status = "Start"
	StatusResume    Status = "Resume"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// Variant selects how submissions are matched while walking a chain.
type Variant int

const (
	// Dashboard matches any submission; an unpassed one yields StatusFailed.
	Dashboard Variant = iota
	// Catalog matches passed submissions only, so a failed phase keeps the
	// status it had before the failure was reached.
	Catalog
)

// Card is the resolved view of one series
type Card struct {
	ID            string `json:"id"`
	DisplayTitle  string `json:"display_title"`
	Description   string `json:"description"`
	Phase         int    `json:"phase"`
	Duration      int    `json:"duration"`
	QuestionCount int    `json:"question_count"`
	Status        Status `json:"status"`
}

// Resolve returns one card per root assessment, in input order.
func Resolve(assessments []models.Assessment, submissions []models.Submission, variant Variant) []Card {
	byID := make(map[string]*models.Assessment, len(assessments))
	for i := range assessments {
		byID[assessments[i].ID] = &assessments[i]
	}

	cards := make([]Card, 0, len(assessments))
	for i := range assessments {
		root := &assessments[i]
		if !root.IsRoot() {
			continue
		}
		cards = append(cards, walk(root, byID, submissions, variant, len(assessments)))
	}
	return cards
}

func walk(root *models.Assessment, byID map[string]*models.Assessment, submissions []models.Submission, variant Variant, maxHops int) Card {
	current := root
	phase := root.Phase
	if phase == 0 {
		phase = 1
	}
	status := StatusStart

	for hops := 0; ; hops++ {
		if hops > maxHops {
			log.Warn().
				Str("root_id", root.ID).
				Str("stuck_at", current.ID).
				Int("hops", hops).
				Msg("phase chain exceeds assessment count, possible cycle")
			break
		}

		sub := findSubmission(submissions, current.ID, variant)
		if sub == nil {
			break
		}

		if !sub.Passed {
			// Only reachable for Dashboard; Catalog never matches unpassed submissions.
			status = StatusFailed
			break
		}

		if current.NextPhaseID == "" {
			status = StatusCompleted
			break
		}

		next, ok := byID[current.NextPhaseID]
		if !ok {
			break
		}

		current = next
		if next.Phase > 0 {
			phase = next.Phase
		} else {
			phase++
		}
		status = StatusResume
	}

	return Card{
		ID:            current.ID,
		DisplayTitle:  root.Title,
		Description:   root.Description,
		Phase:         phase,
		Duration:      current.Duration,
		QuestionCount: len(current.Questions),
		Status:        status,
	}
}

func findSubmission(submissions []models.Submission, assessmentID string, variant Variant) *models.Submission {
	for i := range submissions {
		s := &submissions[i]
		if s.AssessmentID != assessmentID {
			continue
		}
		if variant == Catalog && !s.Passed {
			continue
		}
		return s
	}
	return nil
}

// Roots returns the series-starting assessments, in input order
func Roots(assessments []models.Assessment) []models.Assessment {
	roots := make([]models.Assessment, 0, len(assessments))
	for _, a := range assessments {
		if a.IsRoot() {
			roots = append(roots, a)
		}
	}
	return roots
}

// CompletedCount counts distinct assessments the caller has submitted
func CompletedCount(submissions []models.Submission) int {
	seen := make(map[string]struct{}, len(submissions))
	for _, s := range submissions {
		seen[s.AssessmentID] = struct{}{}
	}
	return len(seen)
}
