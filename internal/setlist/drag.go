package setlist

// Rect is the vertical extent of a rendered row, in the same units as the pointer position.
type Rect struct {
	Top    float64
	Bottom float64
}

// Middle returns the offset of the row's vertical midpoint from its top.
func (r Rect) Middle() float64 {
	return (r.Bottom - r.Top) / 2
}

// ComputeTargetIndex decides whether dragging the row at dragIndex over the row at hoverIndex commits a move.
//
// A move is committed only once the pointer crosses the hovered row's midpoint in the direction of travel:
// below the midpoint when dragging down, above it when dragging up. The returned index is the
// position to pass to [List.Move] as the destination.
func ComputeTargetIndex(dragIndex, hoverIndex int, pointerY float64, hovered Rect) (int, bool) {
	if dragIndex == hoverIndex {
		return 0, false
	}

	offset := pointerY - hovered.Top
	middle := hovered.Middle()

	if dragIndex < hoverIndex && offset < middle {
		return 0, false
	}
	if dragIndex > hoverIndex && offset > middle {
		return 0, false
	}
	return hoverIndex, true
}
