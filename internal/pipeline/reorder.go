package pipeline

import "github.com/mesh-intelligence/rolodex/pkg/types"

// Reorder returns a new ordering of items with m applied and reports whether
// anything changed. The board groups a single flat list by status, so
// placing the moved item at a flat index positions it inside its column.
// items is never modified.
//
// No-ops: the moved item is absent, the status is unchanged and there is no
// anchor, or the anchor is the moved item itself.
func Reorder(items []types.Opportunity, m Move) ([]types.Opportunity, bool) {
	from := indexOf(items, m.ID)
	if from < 0 {
		return items, false
	}
	if items[from].Status == m.Status && !m.HasAnchor() {
		return items, false
	}
	if m.AnchorID == m.ID {
		return items, false
	}

	moved := items[from]
	moved.Status = m.Status

	out := make([]types.Opportunity, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)

	at := len(out)
	if m.HasAnchor() && m.Position != PositionNone {
		if anchor := indexOf(out, m.AnchorID); anchor >= 0 {
			at = anchor
			if m.Position == PositionBelow {
				at++
			}
		}
	}

	out = append(out, types.Opportunity{})
	copy(out[at+1:], out[at:])
	out[at] = moved
	return out, true
}

func indexOf(items []types.Opportunity, id int64) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
