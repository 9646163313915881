// Package authoring turns an interviewer's multi-phase assessment draft into
// linked assessments on the platform.
package authoring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/terra-clan/assessment-portal/internal/models"
)

// MaxPhases is the largest series the wizard builds
const MaxPhases = 3

// DefaultPhaseNames name phases that are left unnamed in a draft
var DefaultPhaseNames = []string{"Foundation", "Pre-Intermediate", "Intermediate"}

// PhaseName returns the default name for the zero-based phase index i
func PhaseName(i int) string {
	if i >= 0 && i < len(DefaultPhaseNames) {
		return DefaultPhaseNames[i]
	}
	return fmt.Sprintf("Phase %d", i+1)
}

// QuestionDraft is one authored question
type QuestionDraft struct {
	Text          string              `json:"text" yaml:"text" validate:"required"`
	Type          models.QuestionType `json:"type" yaml:"type" validate:"required,oneof=MCQ SUBJECTIVE CODING"`
	Options       []string            `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer string              `json:"correct_answer,omitempty" yaml:"correct_answer,omitempty"`
	Points        int                 `json:"points" yaml:"points" validate:"gt=0"`
}

// PhaseDraft is one phase of a draft series
type PhaseDraft struct {
	Name         string          `json:"name,omitempty" yaml:"name,omitempty"`
	Duration     int             `json:"duration" yaml:"duration" validate:"gte=0"`
	TotalMarks   int             `json:"total_marks" yaml:"total_marks" validate:"gte=0"`
	PassingScore int             `json:"passing_score" yaml:"passing_score" validate:"gte=0"`
	Questions    []QuestionDraft `json:"questions" yaml:"questions" validate:"required,min=1,dive"`
}

// Draft is a whole series as filled in by an interviewer
type Draft struct {
	Title       string       `json:"title" yaml:"title" validate:"required"`
	Description string       `json:"description" yaml:"description"`
	Phases      []PhaseDraft `json:"phases" yaml:"phases" validate:"required,min=1,max=3,dive"`
}

// ValidationError lists every problem found in a draft
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid assessment: " + strings.Join(e.Problems, "; ")
}

var validate = validator.New()

// Validate checks field constraints and the per-phase rules
func (d *Draft) Validate() error {
	var problems []string

	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	for i, p := range d.Phases {
		n := i + 1
		sum := 0
		for j, q := range p.Questions {
			sum += q.Points
			if q.Type != models.QuestionMCQ {
				continue
			}
			if len(q.Options) < 2 {
				problems = append(problems, fmt.Sprintf("Phase %d question %d needs at least 2 options", n, j+1))
				continue
			}
			if !(models.MCQ{Options: q.Options}).HasOption(q.CorrectAnswer) {
				problems = append(problems, fmt.Sprintf("Phase %d question %d correct answer %q is not one of the options", n, j+1, q.CorrectAnswer))
			}
		}
		if sum != p.TotalMarks {
			problems = append(problems, fmt.Sprintf("Phase %d question points (%d) must match total marks (%d)", n, sum, p.TotalMarks))
		}
		if p.PassingScore > p.TotalMarks {
			problems = append(problems, fmt.Sprintf("Phase %d passing score (%d) exceeds total marks (%d)", n, p.PassingScore, p.TotalMarks))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Draft.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s allows at most %s entries", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be below %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func (q QuestionDraft) question() (models.Question, error) {
	body, err := models.NewQuestionBody(q.Type, q.Options, q.CorrectAnswer)
	if err != nil {
		return models.Question{}, err
	}
	return models.Question{Text: q.Text, Points: q.Points, Body: body}, nil
}

// phaseRequest builds the create request for the zero-based phase i, linked to next
func (d *Draft) phaseRequest(i int, next string) (models.CreateAssessmentRequest, error) {
	p := d.Phases[i]
	name := p.Name
	if name == "" {
		name = PhaseName(i)
	}

	questions := make([]models.Question, 0, len(p.Questions))
	for _, qd := range p.Questions {
		q, err := qd.question()
		if err != nil {
			return models.CreateAssessmentRequest{}, err
		}
		questions = append(questions, q)
	}

	description := d.Description
	if i > 0 {
		description = fmt.Sprintf("%s (%s)", d.Description, name)
	}

	return models.CreateAssessmentRequest{
		Title:        fmt.Sprintf("%s - %s", d.Title, name),
		Description:  description,
		Duration:     p.Duration,
		Questions:    questions,
		Phase:        i + 1,
		PassingScore: p.PassingScore,
		TotalMarks:   p.TotalMarks,
		NextPhaseID:  next,
	}, nil
}

// LoadDraft reads a YAML draft file. Unknown keys are rejected.
func LoadDraft(path string) (*Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var d Draft
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse draft %s: %w", path, err)
	}
	return &d, nil
}

// ValidateUpdate checks an edit of an existing assessment
func ValidateUpdate(req models.UpdateAssessmentRequest) error {
	var problems []string
	if strings.TrimSpace(req.Title) == "" {
		problems = append(problems, "Title is required")
	}
	if req.Duration < 0 {
		problems = append(problems, "Duration must not be below 0")
	}
	for i, q := range req.Questions {
		if strings.TrimSpace(q.Text) == "" {
			problems = append(problems, fmt.Sprintf("Question %d text is required", i+1))
		}
		if m, ok := q.MCQ(); ok && m.CorrectAnswer != "" && !m.HasOption(m.CorrectAnswer) {
			problems = append(problems, fmt.Sprintf("Question %d correct answer %q is not one of the options", i+1, m.CorrectAnswer))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
