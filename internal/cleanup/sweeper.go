package cleanup

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/exam"
)

// Purger deletes expired persisted sessions. storage.PostgresStore implements it.
type Purger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically closes idle exam sessions and purges expired auth sessions
type Sweeper struct {
	exams    *exam.Registry
	maxIdle  time.Duration
	interval time.Duration
	purger   Purger
}

// NewSweeper creates a new sweeper. purger may be nil.
func NewSweeper(exams *exam.Registry, maxIdle, interval time.Duration, purger Purger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if maxIdle <= 0 {
		maxIdle = 3 * time.Hour
	}

	return &Sweeper{
		exams:    exams,
		maxIdle:  maxIdle,
		interval: interval,
		purger:   purger,
	}
}

// Start begins the sweeper in a goroutine
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Dur("max_idle", s.maxIdle).Msg("Sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one cycle and returns how many exams were closed
func (s *Sweeper) sweep(ctx context.Context) int {
	log.Debug().Msg("Running sweep cycle")

	idle := s.exams.Idle(s.maxIdle)
	closed := 0
	for _, id := range idle {
		if s.exams.Remove(id) {
			closed++
			log.Info().Str("exam_id", id).Msg("Idle exam closed")
		}
	}
	if closed > 0 {
		log.Info().Int("count", closed).Int("remaining", s.exams.Len()).Msg("Idle exams swept")
	}

	if s.purger != nil {
		n, err := s.purger.DeleteExpired(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to purge expired sessions")
		} else if n > 0 {
			log.Info().Int64("count", n).Msg("Expired sessions purged")
		}
	}

	return closed
}
