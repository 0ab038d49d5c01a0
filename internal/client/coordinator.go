package client

import (
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/google/uuid"
)

// DefaultDebounce is how long the coordinator waits after the last edit to
// a set before sending it. Rapid taps on the rep counter collapse into one
// network call.
const DefaultDebounce = 300 * time.Millisecond

// SetSender delivers one set patch to the server. *Client satisfies it.
type SetSender interface {
	UpdateSet(workoutID, setID uuid.UUID, patch session.SetPatch) (*models.WorkoutSet, error)
}

// Coordinator owns the in-flight state of one workout session on the
// client. Edits apply to local state immediately; the network send is
// debounced per set. A Coordinator is created per session and Close must
// be called when the session ends, which cancels all pending timers.
//
// Delivery policy differs by operation. Rep edits are best-effort: on send
// failure the local value is kept and the patch is journaled for resync.
// Confirmation toggles roll back to the pre-edit snapshot so the UI never
// shows a set as confirmed that the server rejected.
type Coordinator struct {
	sender   SetSender
	journal  *Journal
	log      *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	sets    map[uuid.UUID]models.WorkoutSet
	pending map[uuid.UUID]*pendingSend
	closed  bool

	wg sync.WaitGroup
}

type pendingSend struct {
	workoutID uuid.UUID
	patch     session.SetPatch
	timer     *time.Timer
	// snapshot is the set state to restore on failure; nil means keep
	// the optimistic value (best-effort).
	snapshot *models.WorkoutSet
}

// NewCoordinator creates a coordinator for one session. The journal may be
// nil, in which case failed best-effort sends are only logged.
func NewCoordinator(sender SetSender, journal *Journal, log *slog.Logger) *Coordinator {
	return &Coordinator{
		sender:   sender,
		journal:  journal,
		log:      log,
		debounce: DefaultDebounce,
		sets:     make(map[uuid.UUID]models.WorkoutSet),
		pending:  make(map[uuid.UUID]*pendingSend),
	}
}

// Load seeds the coordinator's local state from a fetched session.
func (c *Coordinator) Load(detail *session.Detail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range detail.Sets {
		c.sets[s.ID] = s
	}
}

// Set returns the local view of one set.
func (c *Coordinator) Set(setID uuid.UUID) (models.WorkoutSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sets[setID]
	return s, ok
}

// RecordReps applies a rep count optimistically and schedules a debounced
// send. Repeated calls for the same set within the debounce window collapse
// into one request carrying the final value.
func (c *Coordinator) RecordReps(workoutID, setID uuid.UUID, reps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	s, ok := c.sets[setID]
	if !ok {
		return
	}
	r := reps
	s.ActualReps = &r
	s.Completed = true
	c.sets[setID] = s

	done := true
	c.schedule(workoutID, setID, session.SetPatch{ActualReps: &r, Completed: &done}, nil)
}

// Confirm marks a set as completed at its prescribed reps. Unlike rep
// edits, a failed confirm rolls the set back so the client does not run a
// rest timer off a set the server never accepted.
func (c *Coordinator) Confirm(workoutID, setID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	s, ok := c.sets[setID]
	if !ok {
		return
	}
	snapshot := s
	if !s.IsAmrap {
		reps := s.PrescribedReps
		s.ActualReps = &reps
	}
	s.Completed = true
	c.sets[setID] = s

	done := true
	c.schedule(workoutID, setID, session.SetPatch{Completed: &done}, &snapshot)
}

// Unconfirm clears a set's recorded performance. Rolls back on failure.
func (c *Coordinator) Unconfirm(workoutID, setID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	s, ok := c.sets[setID]
	if !ok {
		return
	}
	snapshot := s
	s.ActualReps = nil
	s.Completed = false
	c.sets[setID] = s

	done := false
	c.schedule(workoutID, setID, session.SetPatch{Completed: &done}, &snapshot)
}

// schedule registers or refreshes the debounced send for a set.
// Caller holds c.mu.
func (c *Coordinator) schedule(workoutID, setID uuid.UUID, patch session.SetPatch, snapshot *models.WorkoutSet) {
	if p, ok := c.pending[setID]; ok {
		p.timer.Stop()
		p.patch = mergePatches(p.patch, patch)
		if p.snapshot == nil {
			p.snapshot = snapshot
		}
		p.timer.Reset(c.debounce)
		return
	}

	p := &pendingSend{workoutID: workoutID, patch: patch, snapshot: snapshot}
	p.timer = time.AfterFunc(c.debounce, func() { c.fire(setID) })
	c.pending[setID] = p
}

// mergePatches overlays b on a; set fields in b win.
func mergePatches(a, b session.SetPatch) session.SetPatch {
	if b.ActualReps != nil {
		a.ActualReps = b.ActualReps
	}
	if b.Completed != nil {
		a.Completed = b.Completed
	}
	return a
}

func (c *Coordinator) fire(setID uuid.UUID) {
	c.mu.Lock()
	p, ok := c.pending[setID]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.pending, setID)
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.send(setID, p)
	}()
}

func (c *Coordinator) send(setID uuid.UUID, p *pendingSend) {
	updated, err := c.sender.UpdateSet(p.workoutID, setID, p.patch)
	if err == nil {
		c.mu.Lock()
		// A newer pending edit owns the local state; do not stomp it.
		if _, editing := c.pending[setID]; !editing {
			c.sets[setID] = *updated
		}
		c.mu.Unlock()
		if c.journal != nil {
			if jerr := c.journal.Clear(setID); jerr != nil {
				c.log.Warn("clearing journal entry", "set_id", setID, "error", jerr)
			}
		}
		return
	}

	if p.snapshot != nil {
		c.mu.Lock()
		c.sets[setID] = *p.snapshot
		c.mu.Unlock()
		c.log.Warn("set update rejected, rolled back", "set_id", setID, "error", err)
		return
	}

	// Best-effort path: keep the optimistic value, journal for resync.
	c.log.Warn("set update failed, journaled", "set_id", setID, "error", err)
	if c.journal != nil {
		if jerr := c.journal.Record(p.workoutID, setID, p.patch); jerr != nil {
			c.log.Error("journaling failed patch", "set_id", setID, "error", jerr)
		}
	}
}

// Flush sends all pending patches immediately and waits for them to settle.
// Called before completing a workout so the server sees every edit.
func (c *Coordinator) Flush() {
	c.mu.Lock()
	ids := make([]uuid.UUID, 0, len(c.pending))
	for id, p := range c.pending {
		p.timer.Stop()
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.fire(id)
	}
	c.wg.Wait()
}

// Resync replays journaled patches against the server, clearing entries
// that are acknowledged. Patches the server now rejects (the workout went
// terminal) are dropped.
func (c *Coordinator) Resync() error {
	if c.journal == nil {
		return nil
	}
	pending, err := c.journal.Pending()
	if err != nil {
		return err
	}
	for _, p := range pending {
		if _, err := c.sender.UpdateSet(p.WorkoutID, p.SetID, p.Patch); err != nil {
			c.log.Warn("dropping stale journaled patch", "set_id", p.SetID, "error", err)
		}
		if err := c.journal.Clear(p.SetID); err != nil {
			return err
		}
	}
	return nil
}

// Close cancels all pending timers without sending. Journaled entries for
// unsent patches are written first so nothing is silently lost.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, p := range c.pending {
		p.timer.Stop()
		if c.journal != nil && p.snapshot == nil {
			if err := c.journal.Record(p.workoutID, id, p.patch); err != nil {
				c.log.Error("journaling pending patch on close", "set_id", id, "error", err)
			}
		}
	}
	c.pending = make(map[uuid.UUID]*pendingSend)
	c.mu.Unlock()

	c.wg.Wait()
}
