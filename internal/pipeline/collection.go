package pipeline

import (
	"sync"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// Collection is the ordered, in-memory list of opportunities behind a
// board. The order is local to the session and never persisted. Readers get
// copies, so a renderer may read while a persist call is outstanding.
type Collection struct {
	mu    sync.RWMutex
	items []types.Opportunity
}

// NewCollection returns a collection holding a copy of items.
func NewCollection(items []types.Opportunity) *Collection {
	return &Collection{items: clone(items)}
}

// Items returns a copy of the current order.
func (c *Collection) Items() []types.Opportunity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.items)
}

// Snapshot returns a copy to restore with Replace after a failed move.
func (c *Collection) Snapshot() []types.Opportunity {
	return c.Items()
}

// Replace swaps in a new order.
func (c *Collection) Replace(items []types.Opportunity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = clone(items)
}

// Len returns the number of opportunities.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Find returns the opportunity with the given id.
func (c *Collection) Find(id int64) (types.Opportunity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOf(c.items, id); i >= 0 {
		return c.items[i], true
	}
	return types.Opportunity{}, false
}

// Column returns the opportunities in one stage, in collection order.
func (c *Collection) Column(status types.Status) []types.Opportunity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return column(c.items, status)
}

// Column is one board column.
type Column struct {
	Status types.Status
	Items  []types.Opportunity
}

// Columns groups the collection into every stage in pipeline order.
// Empty stages are included.
func (c *Collection) Columns() []Column {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cols := make([]Column, len(types.Statuses))
	for i, s := range types.Statuses {
		cols[i] = Column{Status: s, Items: column(c.items, s)}
	}
	return cols
}

func column(items []types.Opportunity, status types.Status) []types.Opportunity {
	out := []types.Opportunity{}
	for _, o := range items {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

func clone(items []types.Opportunity) []types.Opportunity {
	if items == nil {
		return nil
	}
	out := make([]types.Opportunity, len(items))
	copy(out, items)
	return out
}
