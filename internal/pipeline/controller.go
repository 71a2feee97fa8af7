package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// Gateway is the slice of the record store the controller needs.
// PatchOpportunity must wrap types.ErrNotFound when the record is gone.
type Gateway interface {
	ListOpportunities(ctx context.Context) ([]types.Opportunity, error)
	PatchOpportunity(ctx context.Context, id int64, patch types.OpportunityPatch) (*types.Opportunity, error)
}

// State is the controller's position in the optimistic update cycle.
type State int

const (
	StateIdle State = iota
	StateApplying
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateApplying:
		return "applying"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Controller errors.
var (
	ErrMoveInFlight  = errors.New("another move is still being saved")
	ErrSyncFailed    = errors.New("could not save the move; the board was restored")
	ErrRecordDeleted = errors.New("the opportunity was deleted elsewhere; the board was restored")
)

// Option configures a Controller.
type Option func(*Controller)

// WithErrorHandler sets the callback that surfaces failures to the user.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Controller) { c.onError = fn }
}

// Controller applies moves to a Collection immediately and then persists
// the status change through a Gateway, restoring the previous order if the
// write fails. One move may be in flight at a time.
type Controller struct {
	log     *slog.Logger
	gw      Gateway
	coll    *Collection
	onError func(error)

	mu    sync.Mutex
	state State
}

// NewController returns an idle controller over coll.
func NewController(log *slog.Logger, gw Gateway, coll *Collection, opts ...Option) *Controller {
	c := &Controller{log: log, gw: gw, coll: coll}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collection returns the collection the controller publishes to.
func (c *Controller) Collection() *Collection { return c.coll }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Refresh replaces the collection with the gateway's current list.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateApplying {
		c.mu.Unlock()
		return ErrMoveInFlight
	}
	c.mu.Unlock()

	items, err := c.gw.ListOpportunities(ctx)
	if err != nil {
		err = fmt.Errorf("loading opportunities: %w", err)
		c.log.Error("refresh failed", "error", err)
		c.fail(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.coll.Replace(items)
	c.state = StateIdle
	return nil
}

// Move applies m and persists the new status. It reports whether the
// collection changed. On a failed write the whole collection is restored
// and the error wraps ErrRecordDeleted or ErrSyncFailed.
// A move within one column sends no PATCH: order is not stored, so only the
// local collection changes and the move is committed at once.
func (c *Controller) Move(ctx context.Context, m Move) (bool, error) {
	c.mu.Lock()
	if c.state == StateApplying {
		c.mu.Unlock()
		return false, ErrMoveInFlight
	}

	snapshot := c.coll.Snapshot()
	next, changed := Reorder(snapshot, m)
	if !changed {
		c.mu.Unlock()
		c.log.Debug("move ignored", "move", m.String())
		return false, nil
	}
	prev := snapshot[indexOf(snapshot, m.ID)]

	c.coll.Replace(next)
	if prev.Status == m.Status {
		c.state = StateCommitted
		c.mu.Unlock()
		c.log.Debug("move reordered locally", "move", m.String())
		return true, nil
	}
	c.state = StateApplying
	c.mu.Unlock()

	status := m.Status
	_, err := c.gw.PatchOpportunity(ctx, m.ID, types.OpportunityPatch{Status: &status})

	c.mu.Lock()
	if err == nil {
		c.state = StateCommitted
		c.mu.Unlock()
		c.log.Info("move saved", "id", m.ID, "from", prev.Status, "to", m.Status)
		return true, nil
	}
	c.coll.Replace(snapshot)
	c.state = StateRolledBack
	c.mu.Unlock()

	if errors.Is(err, types.ErrNotFound) {
		err = fmt.Errorf("%w: %w", ErrRecordDeleted, err)
	} else {
		err = fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}
	c.log.Warn("move rolled back", "id", m.ID, "to", m.Status, "error", err)
	c.fail(err)
	return true, err
}

func (c *Controller) fail(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}
