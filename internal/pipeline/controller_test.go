package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// fakeGateway records patch calls and fails on demand.
type fakeGateway struct {
	mu      sync.Mutex
	list    []types.Opportunity
	listErr error
	err     error
	calls   []patchCall

	// When set, PatchOpportunity signals entered and waits for release.
	entered chan struct{}
	release chan struct{}
}

type patchCall struct {
	id    int64
	patch types.OpportunityPatch
}

func (f *fakeGateway) ListOpportunities(ctx context.Context) ([]types.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakeGateway) PatchOpportunity(ctx context.Context, id int64, patch types.OpportunityPatch) (*types.Opportunity, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, patchCall{id: id, patch: patch})
	if f.err != nil {
		return nil, f.err
	}
	return &types.Opportunity{ID: id, Status: *patch.Status}, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(gw *fakeGateway, opts ...Option) *Controller {
	return NewController(discardLogger(), gw, NewCollection(board()), opts...)
}

func TestControllerMoveCommits(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)

	changed, err := c.Move(context.Background(), Move{ID: 1, Status: types.StatusProposal, AnchorID: 3, Position: PositionAbove})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StateCommitted, c.State())
	assert.Equal(t, []int64{2, 1, 3}, ids(c.Collection().Items()))

	require.Len(t, gw.calls, 1)
	assert.Equal(t, int64(1), gw.calls[0].id)
	require.NotNil(t, gw.calls[0].patch.Status)
	assert.Equal(t, types.StatusProposal, *gw.calls[0].patch.Status)
	assert.Nil(t, gw.calls[0].patch.Name, "only the status is sent")
	assert.Nil(t, gw.calls[0].patch.Amount)
}

func TestControllerNoOpMoveSkipsGateway(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)

	changed, err := c.Move(context.Background(), Move{ID: 2, Status: types.StatusProposal})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, board(), c.Collection().Items())
	assert.Zero(t, gw.callCount())
}

func TestControllerSameColumnReorderIsLocal(t *testing.T) {
	gw := &fakeGateway{err: errors.New("must not be called")}
	c := newTestController(gw)

	changed, err := c.Move(context.Background(), Move{ID: 3, Status: types.StatusProposal, AnchorID: 2, Position: PositionAbove})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StateCommitted, c.State())
	assert.Equal(t, []int64{1, 3, 2}, ids(c.Collection().Items()))
	assert.Zero(t, gw.callCount())
}

func TestControllerRollsBackToExactSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "transport failure", err: errors.New("connection refused"), wantErr: ErrSyncFailed},
		{name: "validation rejection", err: fmt.Errorf("server: %w", types.ErrInvalidStatus), wantErr: ErrSyncFailed},
		{name: "deleted elsewhere", err: fmt.Errorf("server: %w", types.ErrNotFound), wantErr: ErrRecordDeleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var surfaced []error
			gw := &fakeGateway{err: tt.err}
			c := newTestController(gw, WithErrorHandler(func(err error) { surfaced = append(surfaced, err) }))
			before := c.Collection().Snapshot()

			changed, err := c.Move(context.Background(), Move{ID: 1, Status: types.StatusNegotiation})
			assert.True(t, changed)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, StateRolledBack, c.State())
			assert.Equal(t, before, c.Collection().Items(), "order and statuses must match the snapshot")
			require.Len(t, surfaced, 1)
			assert.Equal(t, err, surfaced[0])
		})
	}
}

func TestControllerRollbackRestoresWholeCollection(t *testing.T) {
	gw := &fakeGateway{err: errors.New("boom")}
	c := newTestController(gw)
	before := c.Collection().Snapshot()

	_, err := c.Move(context.Background(), Move{ID: 1, Status: types.StatusProposal, AnchorID: 2, Position: PositionBelow})
	require.Error(t, err)
	assert.Equal(t, before, c.Collection().Items())

	// A later successful move starts from the restored order.
	gw.err = nil
	_, err = c.Move(context.Background(), Move{ID: 2, Status: types.StatusClosedWon})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 2}, ids(c.Collection().Items()))
}

func TestControllerRejectsConcurrentMove(t *testing.T) {
	gw := &fakeGateway{entered: make(chan struct{}), release: make(chan struct{})}
	c := newTestController(gw)

	done := make(chan error, 1)
	go func() {
		_, err := c.Move(context.Background(), Move{ID: 1, Status: types.StatusProposal})
		done <- err
	}()

	<-gw.entered
	assert.Equal(t, StateApplying, c.State())
	assert.Equal(t, []int64{2, 3, 1}, ids(c.Collection().Items()), "optimistic state is visible while saving")

	_, err := c.Move(context.Background(), Move{ID: 2, Status: types.StatusClosedWon})
	assert.ErrorIs(t, err, ErrMoveInFlight)
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrMoveInFlight)

	close(gw.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateCommitted, c.State())
	assert.Equal(t, 1, gw.callCount())
}

func TestControllerRefresh(t *testing.T) {
	fresh := []types.Opportunity{opp(7, types.StatusClosedWon)}
	gw := &fakeGateway{list: fresh}
	c := newTestController(gw)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, fresh, c.Collection().Items())
	assert.Equal(t, StateIdle, c.State())

	var surfaced error
	gw.listErr = errors.New("offline")
	c = newTestController(gw, WithErrorHandler(func(err error) { surfaced = err }))
	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, gw.listErr)
	assert.Equal(t, err, surfaced)
	assert.Equal(t, board(), c.Collection().Items(), "failed refresh keeps the old collection")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "applying", StateApplying.String())
	assert.Equal(t, "committed", StateCommitted.String())
	assert.Equal(t, "rolled back", StateRolledBack.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestSelfDropNeverReachesController(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw)
	card := DragItem{ID: 2, Status: types.StatusProposal}

	var s Session
	s.BeginDrag(card)
	if m, ok := s.DropAt(card, PositionBelow); ok {
		_, _ = c.Move(context.Background(), m)
	}

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, board(), c.Collection().Items())
	assert.Zero(t, gw.callCount())
}
