package exam

import "github.com/terra-clan/assessment-portal/internal/models"

// QuestionView is a question as shown to the candidate, without the answer key
type QuestionView struct {
	ID      string              `json:"id"`
	Text    string              `json:"text"`
	Type    models.QuestionType `json:"type"`
	Options []string            `json:"options,omitempty"`
	Points  int                 `json:"points"`
}

func newQuestionView(q models.Question) *QuestionView {
	v := &QuestionView{ID: q.ID, Text: q.Text, Type: q.Type(), Points: q.Points}
	if m, ok := q.MCQ(); ok {
		v.Options = append([]string(nil), m.Options...)
	}
	return v
}

// Snapshot is a point-in-time view of an exam session
type Snapshot struct {
	AssessmentID  string               `json:"assessment_id"`
	State         State                `json:"state"`
	Title         string               `json:"title,omitempty"`
	Cursor        int                  `json:"cursor"`
	QuestionCount int                  `json:"question_count"`
	Question      *QuestionView        `json:"question,omitempty"`
	Answer        string               `json:"answer"`
	Answered      int                  `json:"answered"`
	Remaining     int                  `json:"remaining"`
	Clock         string               `json:"clock"`
	LowTime       bool                 `json:"low_time"`
	Error         string               `json:"error,omitempty"`
	Result        *models.SubmitResult `json:"result,omitempty"`
	Navigate      string               `json:"navigate,omitempty"`
}

// IsFirst reports whether the cursor is on the first question
func (s Snapshot) IsFirst() bool { return s.Cursor == 0 }

// IsLast reports whether the cursor is on the last question
func (s Snapshot) IsLast() bool { return s.Cursor >= s.QuestionCount-1 }

// Snapshot returns the current view of the session
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		AssessmentID: c.assessmentID,
		State:        c.state,
		Cursor:       c.cursor,
		Remaining:    c.remaining,
		Clock:        FormatClock(c.remaining),
		LowTime:      c.state == StateInProgress && c.remaining < LowTimeThreshold,
		Result:       c.result,
	}

	if c.assessment != nil {
		snap.Title = c.assessment.Title
		snap.QuestionCount = len(c.assessment.Questions)
		for _, q := range c.assessment.Questions {
			if c.answers[q.ID] != "" {
				snap.Answered++
			}
		}
	}
	if q, ok := c.currentLocked(); ok && !c.state.IsTerminal() {
		snap.Question = newQuestionView(q)
		snap.Answer = c.answers[q.ID]
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
	}
	if c.state == StateSubmitted || c.state == StateAlreadySubmitted {
		snap.Navigate = models.ResultPath(c.assessmentID)
	}
	return snap
}
