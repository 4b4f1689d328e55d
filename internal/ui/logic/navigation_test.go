package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigatorMoveKeepsCursorVisible(t *testing.T) {
	n := NewNavigator()
	n.UpdateState(10, 6)

	sel, off := n.MoveSelection(5)
	assert.Equal(t, 5, sel)
	assert.Equal(t, 0, off)

	sel, off = n.MoveSelection(1)
	assert.Equal(t, 6, sel)
	assert.Equal(t, 1, off)

	sel, off = n.MoveSelection(100)
	assert.Equal(t, 9, sel)
	assert.Equal(t, 4, off)

	sel, off = n.MoveSelection(-100)
	assert.Equal(t, 0, sel)
	assert.Equal(t, 0, off)
}

func TestNavigatorScrollDragsCursor(t *testing.T) {
	n := NewNavigator()
	n.UpdateState(10, 6)

	sel, off := n.ScrollViewport(2)
	assert.Equal(t, 2, sel)
	assert.Equal(t, 2, off)

	sel, off = n.ScrollViewport(10)
	assert.Equal(t, 4, sel)
	assert.Equal(t, 4, off, "viewport stops at the last full page")

	n.SetSelectedIndex(9)
	sel, off = n.ScrollViewport(-4)
	assert.Equal(t, 5, sel)
	assert.Equal(t, 0, off)
}

func TestNavigatorShrinkingList(t *testing.T) {
	n := NewNavigator()
	n.UpdateState(30, 6)
	n.SetSelectedIndex(25)

	n.UpdateState(3, 6)
	assert.Equal(t, 2, n.GetSelectedIndex())
	assert.Equal(t, 0, n.GetViewportOffset())

	n.UpdateState(0, 6)
	assert.Equal(t, 0, n.GetSelectedIndex())
	assert.Equal(t, 0, n.GetViewportOffset())
}

func TestNavigatorThreshold(t *testing.T) {
	n := NewNavigator()
	assert.False(t, n.ReachedThreshold(0.8), "empty list")

	n.UpdateState(10, 6)
	assert.Equal(t, 6, n.VisibleBottom())
	assert.False(t, n.ReachedThreshold(0.8))

	n.SetSelectedIndex(7)
	assert.Equal(t, 8, n.VisibleBottom())
	assert.True(t, n.ReachedThreshold(0.8))

	// a list shorter than the viewport is already at its end
	n.UpdateState(3, 6)
	assert.True(t, n.ReachedThreshold(0.8))
}

func TestNavigatorMinimumHeight(t *testing.T) {
	n := NewNavigator()
	n.UpdateState(5, 0)
	assert.Equal(t, 1, n.GetViewportHeight())

	sel, off := n.MoveSelection(3)
	assert.Equal(t, 3, sel)
	assert.Equal(t, 3, off)
}
