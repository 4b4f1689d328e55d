package logic

// Navigator handles the cursor and viewport over the loaded results
type Navigator struct {
	selectedIndex  int
	viewportOffset int
	viewportHeight int
	totalItems     int
}

// NewNavigator creates a new navigator
func NewNavigator() *Navigator {
	return &Navigator{viewportHeight: 1}
}

// UpdateState sets the list length and viewport height, clamping the cursor
// and viewport into the new bounds
func (n *Navigator) UpdateState(totalItems, viewportHeight int) {
	n.totalItems = max(totalItems, 0)
	n.viewportHeight = max(viewportHeight, 1)
	n.ensureSelectedVisible()
}

// Reset moves the cursor and viewport back to the top
func (n *Navigator) Reset() {
	n.selectedIndex = 0
	n.viewportOffset = 0
}

// GetSelectedIndex returns the current selected index
func (n *Navigator) GetSelectedIndex() int {
	return n.selectedIndex
}

// GetViewportOffset returns the current viewport offset
func (n *Navigator) GetViewportOffset() int {
	return n.viewportOffset
}

// GetViewportHeight returns the number of visible rows
func (n *Navigator) GetViewportHeight() int {
	return n.viewportHeight
}

// SetSelectedIndex sets the selected index and ensures it's visible
func (n *Navigator) SetSelectedIndex(index int) (int, int) {
	n.selectedIndex = index
	n.ensureSelectedVisible()
	return n.selectedIndex, n.viewportOffset
}

// MoveSelection moves the cursor by delta rows
func (n *Navigator) MoveSelection(delta int) (int, int) {
	return n.SetSelectedIndex(n.selectedIndex + delta)
}

// ScrollViewport moves the viewport by delta rows, dragging the cursor along
// when it would leave the view
func (n *Navigator) ScrollViewport(delta int) (int, int) {
	maxOffset := max(n.totalItems-n.viewportHeight, 0)
	n.viewportOffset = min(max(n.viewportOffset+delta, 0), maxOffset)

	if n.selectedIndex < n.viewportOffset {
		n.selectedIndex = n.viewportOffset
	}
	if n.selectedIndex >= n.viewportOffset+n.viewportHeight {
		n.selectedIndex = n.viewportOffset + n.viewportHeight - 1
	}
	n.ensureSelectedVisible()
	return n.selectedIndex, n.viewportOffset
}

// VisibleBottom returns the number of items up to and including the last
// visible row
func (n *Navigator) VisibleBottom() int {
	return min(n.viewportOffset+n.viewportHeight, n.totalItems)
}

// ReachedThreshold reports whether the bottom of the viewport is at or past
// fraction of the list. An empty list never reaches it.
func (n *Navigator) ReachedThreshold(fraction float64) bool {
	if n.totalItems == 0 {
		return false
	}
	return float64(n.VisibleBottom()) >= fraction*float64(n.totalItems)
}

// ensureSelectedVisible clamps the cursor into the list and adjusts the
// viewport to keep it visible
func (n *Navigator) ensureSelectedVisible() {
	if n.selectedIndex >= n.totalItems {
		n.selectedIndex = n.totalItems - 1
	}
	if n.selectedIndex < 0 {
		n.selectedIndex = 0
	}

	// If selected item is above viewport, scroll up
	if n.selectedIndex < n.viewportOffset {
		n.viewportOffset = n.selectedIndex
	}
	// If selected item is below viewport, scroll down
	if n.selectedIndex >= n.viewportOffset+n.viewportHeight {
		n.viewportOffset = n.selectedIndex - n.viewportHeight + 1
	}

	// The viewport never extends past the end of the list
	maxOffset := max(n.totalItems-n.viewportHeight, 0)
	if n.viewportOffset > maxOffset {
		n.viewportOffset = maxOffset
	}
	if n.viewportOffset < 0 {
		n.viewportOffset = 0
	}
}
