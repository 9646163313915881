package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// QuestionType identifies which body variant a question carries
type QuestionType string

const (
	QuestionMCQ        QuestionType = "MCQ"
	QuestionSubjective QuestionType = "SUBJECTIVE"
	QuestionCoding     QuestionType = "CODING"
)

// QuestionBody is the type-specific part of a question.
// Only MCQ carries options and a correct answer.
type QuestionBody interface {
	Type() QuestionType
	questionBody()
}

// MCQ is a multiple choice question body
type MCQ struct {
	Options       []string
	CorrectAnswer string
}

func (MCQ) Type() QuestionType { return QuestionMCQ }
func (MCQ) questionBody()      {}

// HasOption reports whether value is one of the listed options
func (m MCQ) HasOption(value string) bool {
	return slices.Contains(m.Options, value)
}

// IsCorrect compares a candidate answer with the correct option
func (m MCQ) IsCorrect(value string) bool {
	return m.CorrectAnswer != "" && value == m.CorrectAnswer
}

// Subjective is a free-text question body
type Subjective struct{}

func (Subjective) Type() QuestionType { return QuestionSubjective }
func (Subjective) questionBody()      {}

// Coding is a code-answer question body
type Coding struct{}

func (Coding) Type() QuestionType { return QuestionCoding }
func (Coding) questionBody()      {}

// Question is a single assessment question
type Question struct {
	ID     string
	Text   string
	Points int
	Body   QuestionBody
}

// Type returns the body variant, or "" for a question without a body
func (q Question) Type() QuestionType {
	if q.Body == nil {
		return ""
	}
	return q.Body.Type()
}

// MCQ returns the multiple choice body if the question has one
func (q Question) MCQ() (MCQ, bool) {
	m, ok := q.Body.(MCQ)
	return m, ok
}

type questionWire struct {
	ID            string       `json:"id,omitempty"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Points        int          `json:"points"`
}

// MarshalJSON flattens the body into the wire shape used by the platform API
func (q Question) MarshalJSON() ([]byte, error) {
	w := questionWire{
		ID:     q.ID,
		Text:   q.Text,
		Type:   q.Type(),
		Points: q.Points,
	}
	if m, ok := q.MCQ(); ok {
		w.Options = m.Options
		w.CorrectAnswer = m.CorrectAnswer
	}
	return json.Marshal(w)
}

// UnmarshalJSON picks the body variant from the "type" field
func (q *Question) UnmarshalJSON(data []byte) error {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	body, err := NewQuestionBody(w.Type, w.Options, w.CorrectAnswer)
	if err != nil {
		// Unknown types decode as free text
		log.Warn().Str("question_id", w.ID).Str("type", string(w.Type)).Msg("Unknown question type, treating as free text")
		body = Subjective{}
	}

	*q = Question{
		ID:     w.ID,
		Text:   w.Text,
		Points: w.Points,
		Body:   body,
	}
	return nil
}

// NewQuestionBody builds the body variant for t, matched case-insensitively.
// Options and correctAnswer are ignored for non-MCQ types.
func NewQuestionBody(t QuestionType, options []string, correctAnswer string) (QuestionBody, error) {
	switch QuestionType(strings.ToUpper(strings.TrimSpace(string(t)))) {
	case QuestionMCQ:
		return MCQ{Options: options, CorrectAnswer: correctAnswer}, nil
	case QuestionSubjective:
		return Subjective{}, nil
	case QuestionCoding:
		return Coding{}, nil
	default:
		return nil, fmt.Errorf("unknown question type %q", t)
	}
}

// Assessment is one phase of a (possibly single-phase) series
type Assessment struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Duration     int        `json:"duration"` // minutes
	Questions    []Question `json:"questions"`
	Phase        int        `json:"phase,omitempty"`
	NextPhaseID  string     `json:"next_phase_id,omitempty"`
	TotalMarks   int        `json:"total_marks,omitempty"`
	PassingScore int        `json:"passing_score,omitempty"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsRoot reports whether the assessment starts a series (phase 1 or no phase)
func (a *Assessment) IsRoot() bool {
	return a.Phase <= 1
}

// DurationSeconds returns the time limit in seconds
func (a *Assessment) DurationSeconds() int {
	return a.Duration * 60
}

// CreateAssessmentRequest is the body of POST /api/assessments
type CreateAssessmentRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Duration     int        `json:"duration"`
	Questions    []Question `json:"questions"`
	Phase        int        `json:"phase"`
	PassingScore int        `json:"passing_score"`
	TotalMarks   int        `json:"total_marks"`
	NextPhaseID  string     `json:"next_phase_id,omitempty"`
}

// UpdateAssessmentRequest is the body of PUT /api/assessments/:id
type UpdateAssessmentRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Duration    int        `json:"duration"`
	Questions   []Question `json:"questions"`
}

// CreatedResponse carries the id of a newly created resource
type CreatedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}
