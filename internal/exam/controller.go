// Package exam runs a single timed attempt at an assessment: it loads the
// questions, buffers answers, counts down, and submits exactly once.
package exam

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/assessment-portal/internal/models"
)

// LowTimeThreshold is the remaining time, in seconds, below which the clock is flagged
const LowTimeThreshold = 300

// State of an exam session
type State string

const (
	StateLoading          State = "loading"
	StateInProgress       State = "in_progress"
	StateSubmitting       State = "submitting"
	StateSubmitted        State = "submitted"
	StateAlreadySubmitted State = "already_submitted"
	StateFailed           State = "failed"
	StateClosed           State = "closed"
)

// IsTerminal reports whether no further transitions are possible
func (s State) IsTerminal() bool {
	return s == StateSubmitted || s == StateAlreadySubmitted || s == StateFailed || s == StateClosed
}

// Common errors
var (
	ErrSubmitInFlight = errors.New("submission already in progress")
	ErrNotInProgress  = errors.New("exam is not in progress")
	ErrInvalidOption  = errors.New("answer is not one of the options")
)

// API is the part of the platform client used by an exam session
type API interface {
	GetAssessment(ctx context.Context, id string) (*models.Assessment, error)
	MySubmissions(ctx context.Context) ([]models.Submission, error)
	SubmitAssessment(ctx context.Context, id string, req models.SubmitRequest) (*models.SubmitResult, error)
}

// EventType identifies a controller event
type EventType string

const (
	EventTick             EventType = "tick"
	EventSubmitted        EventType = "submitted"
	EventSubmitFailed     EventType = "submit_failed"
	EventAlreadySubmitted EventType = "already_submitted"
	EventLoadFailed       EventType = "load_failed"
)

// Event is delivered to the Listener after a state change
type Event struct {
	Type      EventType            `json:"type"`
	Remaining int                  `json:"remaining"`
	Auto      bool                 `json:"auto,omitempty"`
	Result    *models.SubmitResult `json:"result,omitempty"`
	Err       error                `json:"-"`
}

// Listener receives controller events. It is never called with the controller lock held.
type Listener func(Event)

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the wall clock driving the countdown
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithListener registers an event listener
func WithListener(l Listener) Option {
	return func(c *Controller) {
		c.listener = l
	}
}

// Controller is one candidate's attempt at one assessment
type Controller struct {
	assessmentID string
	api          API
	clock        Clock
	listener     Listener

	// submitting is set before any submit request goes out and is only
	// released when that request fails.
	submitting atomic.Bool

	mu         sync.Mutex
	state      State
	assessment *models.Assessment
	cursor     int
	answers    map[string]string
	remaining  int
	lastErr    error
	result     *models.SubmitResult
	loading    bool
	ticker     Ticker
	stopTicker chan struct{}
	closed     bool

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// NewController creates an exam session for assessmentID in the loading state
func NewController(api API, assessmentID string, opts ...Option) *Controller {
	c := &Controller{
		assessmentID: assessmentID,
		api:          api,
		clock:        RealClock(),
		state:        StateLoading,
		answers:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AssessmentID returns the assessment this session is for
func (c *Controller) AssessmentID() string {
	return c.assessmentID
}

// Load fetches the assessment and the caller's submissions. An earlier
// submission for this assessment ends the session as already submitted.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateLoading || c.loading {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("exam already loaded (%s)", state)
	}
	c.loading = true
	c.mu.Unlock()

	var (
		assessment  *models.Assessment
		submissions []models.Submission
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := c.api.GetAssessment(gctx, c.assessmentID)
		if err != nil {
			return fmt.Errorf("failed to load assessment: %w", err)
		}
		assessment = a
		return nil
	})
	g.Go(func() error {
		s, err := c.api.MySubmissions(gctx)
		if err != nil {
			return fmt.Errorf("failed to load submissions: %w", err)
		}
		submissions = s
		return nil
	})

	if err := g.Wait(); err != nil {
		c.mu.Lock()
		if !c.closed {
			c.state = StateFailed
		}
		c.lastErr = err
		c.mu.Unlock()

		log.Error().Err(err).Str("assessment_id", c.assessmentID).Msg("Failed to load exam")
		c.emit(Event{Type: EventLoadFailed, Err: err})
		return err
	}

	for _, s := range submissions {
		if s.AssessmentID == c.assessmentID {
			c.mu.Lock()
			c.assessment = assessment
			if !c.closed {
				c.state = StateAlreadySubmitted
			}
			c.mu.Unlock()

			log.Info().Str("assessment_id", c.assessmentID).Msg("Assessment already submitted")
			c.emit(Event{Type: EventAlreadySubmitted})
			return nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.lastErr = errors.New("exam closed while loading")
		return c.lastErr
	}
	c.assessment = assessment
	c.state = StateInProgress
	c.cursor = 0
	c.remaining = assessment.DurationSeconds()
	c.startTickerLocked()

	log.Info().
		Str("assessment_id", c.assessmentID).
		Int("questions", len(assessment.Questions)).
		Int("seconds", c.remaining).
		Msg("Exam started")
	return nil
}

// SelectAnswer stores value as the answer to the current question
func (c *Controller) SelectAnswer(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInProgress {
		return ErrNotInProgress
	}
	q, ok := c.currentLocked()
	if !ok {
		return errors.New("assessment has no questions")
	}
	if m, isMCQ := q.MCQ(); isMCQ && !m.HasOption(value) {
		return fmt.Errorf("%w: %q", ErrInvalidOption, value)
	}
	c.answers[q.ID] = value
	return nil
}

// Next moves to the following question. It does nothing on the last one
// or once the exam is no longer in progress.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInProgress {
		return
	}
	if c.cursor < len(c.assessment.Questions)-1 {
		c.cursor++
	}
}

// Previous moves to the preceding question. It does nothing on the first one
// or once the exam is no longer in progress.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInProgress {
		return
	}
	if c.cursor > 0 {
		c.cursor--
	}
}

// Submit sends the buffered answers. Only one submission can be in flight;
// other callers get ErrSubmitInFlight without any request being made.
// auto marks a submission triggered by the countdown.
func (c *Controller) Submit(ctx context.Context, auto bool) (*models.SubmitResult, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}

	c.mu.Lock()
	if c.state != StateInProgress {
		c.mu.Unlock()
		c.submitting.Store(false)
		return nil, ErrNotInProgress
	}
	c.state = StateSubmitting
	c.stopTickerLocked()
	req := BuildSubmitRequest(c.assessment.Questions, c.answers)
	remaining := c.remaining
	c.mu.Unlock()

	log.Info().
		Str("assessment_id", c.assessmentID).
		Bool("auto", auto).
		Int("remaining", remaining).
		Msg("Submitting exam")

	result, err := c.api.SubmitAssessment(ctx, c.assessmentID, req)
	if err != nil {
		c.mu.Lock()
		if c.closed {
			c.state = StateClosed
		} else {
			c.state = StateInProgress
		}
		c.lastErr = err
		c.mu.Unlock()
		c.submitting.Store(false)

		log.Error().Err(err).Str("assessment_id", c.assessmentID).Msg("Failed to submit exam")
		c.emit(Event{Type: EventSubmitFailed, Remaining: remaining, Auto: auto, Err: err})
		return nil, err
	}

	c.mu.Lock()
	c.state = StateSubmitted
	c.result = result
	c.lastErr = nil
	c.mu.Unlock()

	log.Info().
		Str("assessment_id", c.assessmentID).
		Int("score", result.Score).
		Bool("passed", result.Passed).
		Msg("Exam submitted")
	c.emit(Event{Type: EventSubmitted, Remaining: remaining, Auto: auto, Result: result})
	return result, nil
}

// Close stops the countdown and ends an exam that is loading or in
// progress. A submission already in flight still completes. Calling it
// more than once is safe.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.state == StateLoading || c.state == StateInProgress {
		c.state = StateClosed
	}
	c.stopTickerLocked()
	c.closeSubscribers()
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) currentLocked() (models.Question, bool) {
	if c.assessment == nil || c.cursor >= len(c.assessment.Questions) {
		return models.Question{}, false
	}
	return c.assessment.Questions[c.cursor], true
}

func (c *Controller) startTickerLocked() {
	stop := make(chan struct{})
	c.ticker = c.clock.NewTicker(time.Second)
	c.stopTicker = stop
	go c.countdown(c.ticker, stop)
}

// stopTickerLocked stops the ticker before returning; the countdown
// goroutine exits on its own once it sees stop.
func (c *Controller) stopTickerLocked() {
	if c.stopTicker != nil {
		c.ticker.Stop()
		close(c.stopTicker)
		c.stopTicker = nil
		c.ticker = nil
	}
}

func (c *Controller) countdown(ticker Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			c.mu.Lock()
			if c.state != StateInProgress || c.stopTicker == nil {
				c.mu.Unlock()
				return
			}
			if c.remaining <= 1 {
				c.remaining = 0
			} else {
				c.remaining--
			}
			remaining := c.remaining
			c.mu.Unlock()

			c.emit(Event{Type: EventTick, Remaining: remaining})

			if remaining == 0 {
				log.Info().Str("assessment_id", c.assessmentID).Msg("Time is up, auto-submitting")
				if _, err := c.Submit(context.Background(), true); err != nil && !errors.Is(err, ErrSubmitInFlight) {
					log.Warn().Err(err).Str("assessment_id", c.assessmentID).Msg("Auto-submit did not complete")
				}
				return
			}
		}
	}
}

func (c *Controller) emit(ev Event) {
	if c.listener != nil {
		c.listener(ev)
	}
	c.publish(ev)
}
