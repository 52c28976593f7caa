package monitoring

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/isdelr/punchy-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const sweepTimeout = 30 * time.Second

// Scheduler periodically looks for sessions that were punched in long ago and
// never punched out. It only reports them; records are never modified.
type Scheduler struct {
	punchSvc   services.PunchServiceProvider
	eventSvc   services.EventServiceProvider
	publisher  services.Publisher
	schedule   cron.Schedule
	staleAfter time.Duration
	now        func() time.Time
	done       chan struct{}
	stopOnce   sync.Once
}

// NewScheduler creates a new scheduler for the given standard cron spec.
// eventSvc and publisher may be nil.
func NewScheduler(punchSvc services.PunchServiceProvider, eventSvc services.EventServiceProvider, publisher services.Publisher, spec string, staleAfter time.Duration) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return &Scheduler{
		punchSvc:   punchSvc,
		eventSvc:   eventSvc,
		publisher:  publisher,
		schedule:   schedule,
		staleAfter: staleAfter,
		now:        time.Now,
		done:       make(chan struct{}),
	}, nil
}

// Run starts the scheduler's loop. It returns after Stop.
func (s *Scheduler) Run() {
	log.Info().Dur("stale_after", s.staleAfter).Msg("Starting stale session scheduler")

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.done:
			timer.Stop()
			log.Info().Msg("Stopping stale session scheduler")
			return
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			if _, err := s.Sweep(ctx); err != nil {
				log.Error().Err(err).Msg("Stale session sweep failed")
			}
			cancel()
		}
	}
}

// Stop halts the scheduler. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Sweep reports every record that has been open for at least staleAfter and
// returns how many were found. A sweep that finds any also stores one summary
// event.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	records, err := s.punchSvc.ListOpenSince(ctx, now.Add(-s.staleAfter))
	if err != nil {
		return 0, err
	}

	usernames := make([]string, 0, len(records))
	for _, rec := range records {
		usernames = append(usernames, rec.Username)
		log.Warn().
			Str("username", rec.Username).
			Int64("record_id", rec.ID).
			Time("clock_in", rec.ClockIn).
			Dur("open_for", now.Sub(rec.ClockIn)).
			Msg("Stale open punch record")
		if s.publisher != nil {
			s.publisher.Publish(rec.Username, services.ActionPunchStale, rec)
		}
	}

	if len(records) > 0 && s.eventSvc != nil {
		msg := fmt.Sprintf("%d open records older than %s: %s", len(records), s.staleAfter, strings.Join(usernames, ", "))
		if err := s.eventSvc.CreateEvent(ctx, services.ActionPunchStale, "warn", msg, nil); err != nil {
			log.Error().Err(err).Msg("Failed to store stale session event")
		}
	}
	return len(records), nil
}
