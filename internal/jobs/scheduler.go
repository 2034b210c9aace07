package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"tutoria/auth/internal/notify"
)

// Scheduler enqueues recurring maintenance work onto the notification
// stream. Lockout expiry is deliberately not swept here; it is checked
// lazily at login time.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher *notify.Dispatcher
	log        zerolog.Logger
}

func NewScheduler(dispatcher *notify.Dispatcher, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		dispatcher: dispatcher,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if s.dispatcher == nil {
		return nil
	}

	// Daily purge of accounts that never finished activation.
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.enqueuePurgePending); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight jobs, up to a bound.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) enqueuePurgePending() {
	s.dispatcher.Dispatch(notify.Event{Type: notify.EventPurgePending})
	s.log.Debug().Msg("purge pending task enqueued")
}
