package models

import (
	"time"
)

// InterviewStatus represents the lifecycle state of an interview slot
type InterviewStatus string

const (
	InterviewAvailable InterviewStatus = "available"
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewConfirmed InterviewStatus = "confirmed"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

// IsTerminal returns true if the status is a terminal state
func (s InterviewStatus) IsTerminal() bool {
	return s == InterviewCompleted || s == InterviewCancelled
}

// Interview is an interview slot, booked or not
type Interview struct {
	ID               string          `json:"id"`
	InterviewerID    string          `json:"interviewer_id"`
	CandidateID      string          `json:"candidate_id,omitempty"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Type             string          `json:"type"` // Technical, HR, Behavioral, ...
	ScheduledAt      time.Time       `json:"scheduled_at"`
	Duration         int             `json:"duration"` // minutes
	Status           InterviewStatus `json:"status"`
	MeetingLink      string          `json:"meeting_link,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	InterviewerName  string          `json:"interviewer_name,omitempty"`
	InterviewerEmail string          `json:"interviewer_email,omitempty"`
	CandidateName    string          `json:"candidate_name,omitempty"`
	CandidateEmail   string          `json:"candidate_email,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// EndsAt returns the scheduled end of the interview
func (i *Interview) EndsAt() time.Time {
	return i.ScheduledAt.Add(time.Duration(i.Duration) * time.Minute)
}

// IsUpcoming reports whether the interview starts after now
func (i *Interview) IsUpcoming(now time.Time) bool {
	return i.ScheduledAt.After(now)
}

// CreateSlotRequest is the body of POST /api/interviews/slots
type CreateSlotRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Duration    int       `json:"duration"`
	MeetingLink string    `json:"meeting_link"`
}

// CompleteInterviewRequest is the body of POST /api/interviews/:id/complete
type CompleteInterviewRequest struct {
	Notes string `json:"notes"`
}
