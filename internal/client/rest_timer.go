package client

import (
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// RestTimer is the countdown between sets. It exists only in client memory
// for the duration of one rest period; nothing about it is sent to the
// server or survives a restart.
type RestTimer struct {
	// Done fires once when the rest period ends.
	Done  <-chan time.Time
	ends  time.Time
	timer *time.Timer
}

// StartRest begins a rest countdown after confirming a set. It returns nil
// for the final set of the workout, where there is nothing to rest for.
func StartRest(sets []models.WorkoutSet, confirmedSetID uuid.UUID, d time.Duration) *RestTimer {
	last := true
	found := false
	for _, s := range sets {
		if s.ID == confirmedSetID {
			found = true
			continue
		}
		if found && !s.Completed {
			last = false
			break
		}
	}
	if !found || last {
		return nil
	}

	t := time.NewTimer(d)
	return &RestTimer{
		Done:  t.C,
		ends:  time.Now().Add(d),
		timer: t,
	}
}

// Remaining reports the time left, clamped at zero.
func (t *RestTimer) Remaining() time.Duration {
	if r := time.Until(t.ends); r > 0 {
		return r
	}
	return 0
}

// Stop cancels the countdown early (the lifter started the next set).
func (t *RestTimer) Stop() {
	t.timer.Stop()
}
