// Package playlist provides the ordered item list and its cursor.
package playlist

import "github.com/osa030/skystream/internal/domain/media"

// Navigator tracks the current position in an immutable list of items.
// When the list is non-empty the index always satisfies 0 <= index < len.
type Navigator struct {
	items []media.Item
	index int
}

// New creates a navigator positioned at start. Out-of-range starts are
// clamped into the list.
func New(items []media.Item, start int) *Navigator {
	copied := make([]media.Item, len(items))
	copy(copied, items)

	n := &Navigator{items: copied}
	if len(copied) > 0 {
		n.index = clampIndex(start, len(copied))
	}
	return n
}

// Current returns the item at the cursor.
func (n *Navigator) Current() (media.Item, bool) {
	if len(n.items) == 0 {
		return media.Item{}, false
	}
	return n.items[n.index], true
}

// Next moves to the following item. Returns false at the end of the list.
func (n *Navigator) Next() bool {
	if !n.HasNext() {
		return false
	}
	n.index++
	return true
}

// Previous moves to the preceding item. Returns false at the start of the list.
func (n *Navigator) Previous() bool {
	if !n.HasPrevious() {
		return false
	}
	n.index--
	return true
}

// Select jumps to index i. Returns false if i is out of range or already current.
func (n *Navigator) Select(i int) bool {
	if i < 0 || i >= len(n.items) || i == n.index {
		return false
	}
	n.index = i
	return true
}

// HasNext reports whether Next would move.
func (n *Navigator) HasNext() bool {
	return n.index < len(n.items)-1
}

// HasPrevious reports whether Previous would move.
func (n *Navigator) HasPrevious() bool {
	return len(n.items) > 0 && n.index > 0
}

// Peek returns the item after the cursor without moving.
func (n *Navigator) Peek() (media.Item, bool) {
	if !n.HasNext() {
		return media.Item{}, false
	}
	return n.items[n.index+1], true
}

// Index returns the cursor position.
func (n *Navigator) Index() int {
	return n.index
}

// Len returns the number of items.
func (n *Navigator) Len() int {
	return len(n.items)
}

// ItemIDs returns all item IDs in order.
func (n *Navigator) ItemIDs() []string {
	ids := make([]string, len(n.items))
	for i, it := range n.items {
		ids[i] = it.ID
	}
	return ids
}

func clampIndex(i, length int) int {
	if i < 0 {
		return 0
	}
	if i >= length {
		return length - 1
	}
	return i
}
