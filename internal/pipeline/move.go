// Package pipeline implements the opportunity board engine: the drag
// session tracker, the reorder algorithm, the in-memory collection and the
// optimistic sync controller that persists moves through a gateway.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// Position says on which side of the anchor a moved card lands.
type Position string

// Positions. The zero value means no position was given.
const (
	PositionNone  Position = ""
	PositionAbove Position = "above"
	PositionBelow Position = "below"
)

// ParsePosition accepts "above", "below" or "" in any case.
func ParsePosition(s string) (Position, error) {
	switch p := Position(strings.ToLower(strings.TrimSpace(s))); p {
	case PositionNone, PositionAbove, PositionBelow:
		return p, nil
	default:
		return PositionNone, fmt.Errorf("invalid position %q: must be above or below", s)
	}
}

// Move is one drag result: opportunity ID goes to Status, optionally next to
// the opportunity AnchorID. AnchorID 0 means no anchor.
type Move struct {
	ID       int64
	Status   types.Status
	AnchorID int64
	Position Position
}

// HasAnchor reports whether the move names an anchor.
func (m Move) HasAnchor() bool { return m.AnchorID != 0 }

func (m Move) String() string {
	if !m.HasAnchor() {
		return fmt.Sprintf("#%d -> %s", m.ID, m.Status)
	}
	return fmt.Sprintf("#%d -> %s (%s #%d)", m.ID, m.Status, m.Position, m.AnchorID)
}
