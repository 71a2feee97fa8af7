package pipeline

import "github.com/mesh-intelligence/rolodex/pkg/types"

// DragItem identifies a card on the board.
type DragItem struct {
	ID     int64
	Status types.Status
}

// Rect is the vertical extent of a card in pointer coordinates.
type Rect struct {
	Top    float64
	Bottom float64
}

// HoverPosition places the pointer above or below a card: above when its
// offset from the card's top is less than half the card's height.
func HoverPosition(pointerY float64, r Rect) Position {
	mid := (r.Bottom - r.Top) / 2
	if pointerY-r.Top < mid {
		return PositionAbove
	}
	return PositionBelow
}

// Highlight is the advisory hover state a renderer draws.
type Highlight struct {
	CardID   int64
	Position Position
	Column   types.Status
}

// Session tracks one drag gesture. It only produces Moves; nothing is
// changed until a Move is handed to a Controller. The zero Session is idle.
type Session struct {
	active    bool
	source    DragItem
	highlight Highlight
}

// BeginDrag starts a gesture for item, discarding any previous one.
func (s *Session) BeginDrag(item DragItem) {
	s.active = true
	s.source = item
	s.highlight = Highlight{}
}

// Active reports whether a drag is in progress.
func (s *Session) Active() bool { return s.active }

// Source returns the dragged item.
func (s *Session) Source() (DragItem, bool) { return s.source, s.active }

// Highlight returns the current hover state.
func (s *Session) Highlight() Highlight { return s.highlight }

// HoverCard records the pointer over target and returns where the card
// would land. The position is recomputed on every call. Hovering the dragged
// card itself is rejected.
func (s *Session) HoverCard(target DragItem, r Rect, pointerY float64) (Position, bool) {
	if !s.active || target.ID == s.source.ID {
		s.highlight = Highlight{}
		return PositionNone, false
	}
	pos := HoverPosition(pointerY, r)
	s.highlight = Highlight{CardID: target.ID, Position: pos}
	return pos, true
}

// HoverColumn records the pointer over an empty part of a column. Only a
// column with a different status accepts the card.
func (s *Session) HoverColumn(status types.Status) bool {
	if !s.active || s.source.Status == status {
		s.highlight = Highlight{}
		return false
	}
	s.highlight = Highlight{Column: status}
	return true
}

// DropOnCard ends the gesture over target at pointerY.
func (s *Session) DropOnCard(target DragItem, r Rect, pointerY float64) (Move, bool) {
	return s.DropAt(target, HoverPosition(pointerY, r))
}

// DropAt ends the gesture next to target. The card takes target's status.
// Dropping a card on itself yields no Move.
func (s *Session) DropAt(target DragItem, pos Position) (Move, bool) {
	defer s.End()
	if !s.active || target.ID == s.source.ID {
		return Move{}, false
	}
	return Move{
		ID:       s.source.ID,
		Status:   target.Status,
		AnchorID: target.ID,
		Position: pos,
	}, true
}

// DropOnColumn ends the gesture on a column. The card is appended to the
// column, and only when the column's status differs from the card's.
func (s *Session) DropOnColumn(status types.Status) (Move, bool) {
	defer s.End()
	if !s.active || s.source.Status == status {
		return Move{}, false
	}
	return Move{ID: s.source.ID, Status: status}, true
}

// End abandons the gesture.
func (s *Session) End() {
	s.active = false
	s.source = DragItem{}
	s.highlight = Highlight{}
}
