//go:build slotring_debug
// +build slotring_debug

package slotring

import (
	"fmt"
	"log"
	"strings"

	"github.com/gobwas/avl"
)

const debug = true

// assertSlotsConsistent checks that per-node slot counters match the tree.
func assertSlotsConsistent(tree avl.Tree, load []int) {
	act := make([]int, len(load))
	tree.InOrder(func(x avl.Item) bool {
		act[x.(slot).node]++
		return true
	})
	for i, n := range load {
		if act[i] != n {
			panic(fmt.Sprintf(
				"slotring: internal error: node #%d has %d slots on the ring; counter is %d",
				i, act[i], n,
			))
		}
	}
}

func setupRingTrace(r *Ring) {
	log.SetFlags(0)

	var depth int
	enter := func() {
		depth++
		log.SetPrefix(strings.Repeat(" ", depth*4))
	}
	leave := func() {
		depth--
		log.SetPrefix(strings.Repeat(" ", depth*4))
	}
	update := func(verb string) func(string) traceRingUpdate {
		return func(node string) traceRingUpdate {
			log.Printf("%s: %s", verb, node)
			enter()
			return traceRingUpdate{
				OnSlot: func(i int) {
					log.Printf("slot: [%d = %s]", i, node)
				},
				OnDone: func(n int, err error) {
					leave()
					if err != nil {
						log.Printf("%s failed: %v", verb, err)
					} else {
						log.Printf("%s done: %d slots", verb, n)
					}
				},
			}
		}
	}
	r.trace = r.trace.Compose(traceRing{
		OnDelete: update("deleting"),
		OnInsert: update("inserting"),
	})
}
