package slotring

import (
	"fmt"
	"hash"
	"io"

	"github.com/cespare/xxhash/v2"
)

func (r *Ring) digest(key string) uint64 {
	h, _ := r.hashPool.Get().(hash.Hash64)
	if h == nil {
		if r.hash != nil {
			h = r.hash()
		} else {
			h = xxhash.New()
		}
	}
	defer func() {
		h.Reset()
		r.hashPool.Put(h)
	}()

	if _, err := io.WriteString(h, key); err != nil {
		panic(fmt.Sprintf("slotring: digest error: %v", err))
	}
	return h.Sum64()
}

// slotOf maps digest d onto one of n slots.
func slotOf(d uint64, n int) int {
	return int(d % uint64(n))
}

// owner returns index of the node owning slot i on a ring of r nodes.
func owner(i, r int) int {
	return i % r
}
