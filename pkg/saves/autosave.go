package saves

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Autosave saves the working directory into the named slot, then waits for
// the next activation of sched, and repeats until ctx is canceled.
//
// Cancellation is checked before every save and while waiting; a save that
// has started always runs to completion. Recoverable save failures are
// reported and the loop carries on. Autosave returns nil when canceled, and
// ErrScheduleExhausted when sched will never activate again.
func (s *Store) Autosave(ctx context.Context, name string, sched cron.Schedule) error {
	if err := s.validateSaveName(name); err != nil {
		return err
	}

	if sched.Next(s.now()).IsZero() {
		return fmt.Errorf("%w: autosave %q", ErrScheduleExhausted, name)
	}

	s.notify.Infof("Entering autosave mode with %s file.", name)
	s.log.Infof("autosave %q started", name)

	for {
		if ctx.Err() != nil {
			break
		}

		if err := s.Save(name); err != nil && !IsRecoverable(err) {
			s.log.Errorf("autosave %q stopped: %v", name, err)
			return err
		}

		now := s.now()
		next := sched.Next(now)
		if next.IsZero() {
			s.log.Errorf("autosave %q stopped: schedule has no next activation", name)
			return fmt.Errorf("%w: autosave %q", ErrScheduleExhausted, name)
		}
		wait := next.Sub(now)
		s.log.Debugf("autosave %q: next save in %s", name, wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	s.notify.Infof("Autosave stopped.")
	s.log.Infof("autosave %q stopped", name)
	return nil
}
