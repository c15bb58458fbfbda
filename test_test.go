package slotring

import (
	"bytes"
	"fmt"
	"hash"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/gobwas/avl"
)

// digestHook returns a hash constructor which produces given values for
// given keys and falls back to xxhash for all other keys.
func digestHook(t testing.TB, values map[string]uint64) func() hash.Hash64 {
	return func() hash.Hash64 {
		return &hash64{
			t:      t,
			values: values,
		}
	}
}

type hash64 struct {
	t      testing.TB
	values map[string]uint64
	buf    bytes.Buffer
}

func (h *hash64) Write(p []byte) (int, error) {
	return h.buf.Write(p)
}

func (h *hash64) Sum(b []byte) []byte {
	panic("slotring: hash Sum() must not be called")
}

func (h *hash64) Reset() {
	h.buf.Reset()
}

func (h *hash64) Size() int {
	return 8
}

func (h *hash64) BlockSize() int {
	return 1
}

func (h *hash64) Sum64() uint64 {
	key := h.buf.String()
	v, has := h.values[key]
	if has {
		h.t.Logf("using digest value for key %#q: %d", key, v)
		return v
	}
	return xxhash.Sum64(h.buf.Bytes())
}

func nodeNames(n int) []string {
	ret := make([]string, n)
	for i := range ret {
		ret[i] = fmt.Sprintf("node_%d", i)
	}
	return ret
}

func makeRing(t testing.TB, c Config) *Ring {
	r, err := New(c)
	if err != nil {
		t.Fatalf("can't create ring: %v", err)
	}
	return r
}

func ringSlots(r *Ring) (ss []slot) {
	r.ringMu.RLock()
	defer r.ringMu.RUnlock()
	r.ring.InOrder(func(x avl.Item) bool {
		ss = append(ss, x.(slot))
		return true
	})
	return ss
}

func assertRingsEqual(t *testing.T, r0, r1 *Ring) {
	t.Helper()
	ss0 := ringSlots(r0)
	ss1 := ringSlots(r1)
	if n0, n1 := len(ss0), len(ss1); n0 != n1 {
		t.Fatalf("sizes are not equal: %d vs %d", n0, n1)
	}
	for i, s0 := range ss0 {
		if s1 := ss1[i]; s0 != s1 {
			t.Fatalf(
				"#%d-th slots are not equal: %d (%s) vs %d (%s)",
				i,
				s0.index, r0.nodes[s0.node],
				s1.index, r1.nodes[s1.node],
			)
		}
	}
}

func getMapping(t testing.TB, r *Ring, numKeys int) map[string]string {
	ret := make(map[string]string, numKeys)
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("key-%d", i)
		node, err := r.Get(key)
		if err != nil {
			t.Fatalf("unexpected error for key %q: %v", key, err)
		}
		ret[key] = node
	}
	return ret
}
