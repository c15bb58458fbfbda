package slotring

import "github.com/gobwas/avl"

// slot represents a virtual slot present on the ring.
type slot struct {
	// index is a position of the slot on the ring, in [0, V).
	index int

	// node is an index of the owning node within configured nodes.
	node int
}

func (s slot) Compare(x avl.Item) int {
	return compare(s.index, x.(slot).index)
}

// search is a slot index used to query the ring tree.
type search int

func (s search) Compare(x avl.Item) int {
	return compare(int(s), x.(slot).index)
}

// ceiling returns the slot at index i or, if there is no such slot, its
// closest successor. If i is past the last slot, the lowest slot is returned.
// It returns nil only when tree is empty.
func ceiling(tree avl.Tree, i int) avl.Item {
	if x := tree.Search(search(i)); x != nil {
		return x
	}
	if x := tree.Successor(search(i)); x != nil {
		return x
	}
	return tree.Min()
}

func compare(x0, x1 int) int {
	if x0 < x1 {
		return -1
	}
	if x0 > x1 {
		return 1
	}
	return 0
}
