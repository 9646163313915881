package models

import (
	"math"
	"time"
)

// SubmissionStatus represents the state of a candidate's attempt
type SubmissionStatus string

const (
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionSubmitted  SubmissionStatus = "submitted"
	SubmissionGraded     SubmissionStatus = "graded"
)

// Answer is a scored answer as returned by the platform
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
	IsCorrect  bool   `json:"is_correct,omitempty"`
	Points     int    `json:"points,omitempty"`
}

// Submission is a candidate's one-time recorded attempt at an assessment
type Submission struct {
	ID                string           `json:"id"`
	AssessmentID      string           `json:"assessment_id"`
	CandidateID       string           `json:"candidate_id,omitempty"`
	Answers           []Answer         `json:"answers,omitempty"`
	Score             int              `json:"score"`
	Status            SubmissionStatus `json:"status"`
	StartedAt         time.Time        `json:"started_at"`
	SubmittedAt       time.Time        `json:"submitted_at"`
	Passed            bool             `json:"passed"`
	TotalMarks        int              `json:"total_marks,omitempty"`
	NextPhaseUnlocked bool             `json:"next_phase_unlocked"`
	NextPhaseID       string           `json:"next_phase_id,omitempty"`
}

// Percentage returns score/total_marks rounded to a whole percent, or 0 without a total
func (s *Submission) Percentage() int {
	if s.TotalMarks <= 0 {
		return 0
	}
	return int(math.Round(float64(s.Score) / float64(s.TotalMarks) * 100))
}

// TimeTaken returns how long the attempt took, or 0 if either timestamp is missing
func (s *Submission) TimeTaken() time.Duration {
	if s.StartedAt.IsZero() || s.SubmittedAt.IsZero() {
		return 0
	}
	return s.SubmittedAt.Sub(s.StartedAt)
}

// AnswerRecord is one entry of a submit payload
type AnswerRecord struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
}

// SubmitRequest is the body of POST /api/assessments/:id/submit
type SubmitRequest struct {
	Answers []AnswerRecord `json:"answers"`
}

// SubmitResult is returned by the submit endpoint
type SubmitResult struct {
	Message           string `json:"message,omitempty"`
	Score             int    `json:"score"`
	TotalMarks        int    `json:"total_marks"`
	Passed            bool   `json:"passed"`
	NextPhaseUnlocked bool   `json:"next_phase_unlocked"`
	NextPhaseID       string `json:"next_phase_id,omitempty"`
}
