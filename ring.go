package slotring

import (
	"errors"
	"fmt"
	"hash"
	"strings"
	"sync"

	"github.com/gobwas/avl"
)

// DefaultSlots is the number of virtual slots used when Config.Slots is zero.
const DefaultSlots = 1024

// ErrEmptyRing is returned by Ring.Get when there are no slots left on the
// ring.
var ErrEmptyRing = errors.New("slotring: ring is empty")

// UnknownNodeError is returned when an operation refers to a node which was
// not configured for the ring.
type UnknownNodeError struct {
	Node string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("slotring: unknown node %q", e.Node)
}

// Config describes ring parameters.
type Config struct {
	// Nodes is a list of real nodes to be placed on the ring.
	// Node identifiers must be distinct ignoring the case.
	// Slot s is initially owned by Nodes[s % len(Nodes)].
	Nodes []string

	// Slots is an optional number of virtual slots on the ring.
	// It must not be less than number of nodes and should be a multiple of
	// it, otherwise some nodes own one slot more than others.
	//
	// If Slots is zero, then the DefaultSlots is used.
	Slots int

	// Hash is an optional function used to build up a new 64-bit hash function
	// for keys digest calculation. If Hash is nil, xxhash is used.
	Hash func() hash.Hash64
}

// Ring is a consistent hashing ring of virtual slots.
// It is goroutine safe. Ring instances must not be copied.
type Ring struct {
	nodes []string
	slots int
	hash  func() hash.Hash64

	// hashPool is a pool of reusable hash functions.
	hashPool sync.Pool

	// mu serializes write-only operations on the ring.
	mu sync.Mutex

	// ringMu serializes read & write operations on the ring snapshot.
	// It's read-end should be held when reading the tree or the counters.
	// It's write-end should be held when they are being replaced.
	ringMu sync.RWMutex

	// ring is a tree holding present slots.
	// It's protected by r.mu and r.ringMu mutex.
	ring avl.Tree // tree<slot>

	// load holds number of present slots per node.
	// It's protected by r.mu and r.ringMu mutex and is never modified in
	// place.
	load []int

	trace traceRing
}

// New creates a ring of c.Slots virtual slots spread over c.Nodes.
func New(c Config) (*Ring, error) {
	if len(c.Nodes) == 0 {
		return nil, fmt.Errorf("slotring: no nodes given")
	}
	slots := c.Slots
	if slots == 0 {
		slots = DefaultSlots
	}
	if slots < len(c.Nodes) {
		return nil, fmt.Errorf(
			"slotring: number of slots (%d) is less than number of nodes (%d)",
			slots, len(c.Nodes),
		)
	}
	for i, x := range c.Nodes {
		for _, y := range c.Nodes[:i] {
			if strings.EqualFold(x, y) {
				return nil, fmt.Errorf("slotring: duplicate node %q", x)
			}
		}
	}
	r := &Ring{
		nodes: append(([]string)(nil), c.Nodes...),
		slots: slots,
		hash:  c.Hash,
		load:  make([]int, len(c.Nodes)),
	}
	for i := 0; i < slots; i++ {
		s := slot{
			index: i,
			node:  owner(i, len(r.nodes)),
		}
		r.ring = mustInsertTree(r.ring, s)
		r.load[s.node]++
	}
	setupRingTrace(r)

	return r, nil
}

// Get returns the node owning the key.
// It returns ErrEmptyRing when all nodes are deleted from the ring.
func (r *Ring) Get(key string) (string, error) {
	i := r.Slot(key)

	r.ringMu.RLock()
	x := ceiling(r.ring, i)
	r.ringMu.RUnlock()

	if x == nil {
		return "", ErrEmptyRing
	}
	return r.nodes[x.(slot).node], nil
}

// Slot returns the virtual slot which key hashes to. Note that the slot may
// be absent on the ring, in which case the key is owned by the closest
// successor of the slot.
func (r *Ring) Slot(key string) int {
	return slotOf(r.digest(key), r.slots)
}

// Delete removes all slots of the node from the ring. Keys which were owned
// by the node become owned by the next present slots.
// It returns *UnknownNodeError when node was not configured for the ring.
// Deleting a node having no slots on the ring is a no-op.
func (r *Ring) Delete(node string) error {
	return r.update(node, -1, r.trace.onDelete(node), func(tree avl.Tree, s slot) (avl.Tree, bool) {
		tree, existed := tree.Delete(s)
		return tree, existed != nil
	})
}

// Insert puts all slots of previously deleted node back on the ring.
// It returns *UnknownNodeError when node was not configured for the ring.
// Inserting a node which has all of its slots on the ring is a no-op.
func (r *Ring) Insert(node string) error {
	return r.update(node, +1, r.trace.onInsert(node), func(tree avl.Tree, s slot) (avl.Tree, bool) {
		tree, existing := tree.Insert(s)
		return tree, existing == nil
	})
}

// Has returns true if node has at least one slot on the ring.
func (r *Ring) Has(node string) bool {
	i := r.index(node)
	if i == -1 {
		return false
	}
	r.ringMu.RLock()
	defer r.ringMu.RUnlock()
	return r.load[i] > 0
}

// Nodes returns nodes having slots on the ring in configuration order.
func (r *Ring) Nodes() []string {
	r.ringMu.RLock()
	load := r.load
	r.ringMu.RUnlock()

	var ret []string
	for i, n := range load {
		if n > 0 {
			ret = append(ret, r.nodes[i])
		}
	}
	return ret
}

// Len returns number of slots present on the ring.
func (r *Ring) Len() int {
	r.ringMu.RLock()
	defer r.ringMu.RUnlock()
	return r.ring.Size()
}

// Slots returns the total number of virtual slots the ring was created with.
func (r *Ring) Slots() int {
	return r.slots
}

// update applies fn to every slot of the node and publishes the resulting
// tree. Sign is +1 if fn puts slots on the ring and -1 if it takes them off.
func (r *Ring) update(
	node string,
	sign int,
	trace traceRingUpdate,
	fn func(avl.Tree, slot) (avl.Tree, bool),
) (err error) {
	var n int
	defer func() {
		trace.onDone(n, err)
	}()

	i := r.index(node)
	if i == -1 {
		return &UnknownNodeError{Node: node}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ringMu.RLock()
	root := r.ring
	r.ringMu.RUnlock()

	for j := i; j < r.slots; j += len(r.nodes) {
		var changed bool
		root, changed = fn(root, slot{
			index: j,
			node:  i,
		})
		if changed {
			trace.onSlot(j)
			n++
		}
	}
	if n == 0 {
		return nil
	}

	load := append(([]int)(nil), r.load...)
	load[i] += sign * n
	assertSlotsConsistent(root, load)

	r.ringMu.Lock()
	r.ring = root
	r.load = load
	r.ringMu.Unlock()

	return nil
}

// index returns position of the node within configured nodes or -1 if there
// is no such node.
func (r *Ring) index(node string) int {
	for i, x := range r.nodes {
		if strings.EqualFold(x, node) {
			return i
		}
	}
	return -1
}

func mustInsertTree(tree avl.Tree, x avl.Item) avl.Tree {
	tree, existing := tree.Insert(x)
	if existing != nil {
		panic("slotring: internal error: mustInsert failed")
	}
	return tree
}
