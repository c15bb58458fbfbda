package main

import (
	"fmt"
	"testing"

	"github.com/gobwas/avl"
)

func TestSlotCounts(t *testing.T) {
	for _, test := range []struct {
		name string
		list string
		lo   int
		hi   int
		step int
		exp  []int
		err  bool
	}{
		{
			name: "list",
			list: "1024, 64,,1024",
			exp:  []int{64, 1024},
		},
		{
			name: "range",
			lo:   8,
			hi:   40,
			exp:  []int{8, 16, 24, 32},
		},
		{
			name: "merge",
			list: "16,100",
			lo:   8,
			hi:   30,
			step: 4,
			exp:  []int{8, 12, 16, 20, 24, 28, 100},
		},
		{
			name: "malformed",
			list: "8,x",
			err:  true,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			tree, err := slotCounts(test.list, test.lo, test.hi, test.step, 8)
			if test.err {
				if err == nil {
					t.Fatalf("want error; got nothing")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var act []int
			tree.InOrder(func(x avl.Item) bool {
				act = append(act, int(x.(slotCount)))
				return true
			})
			if fmt.Sprint(act) != fmt.Sprint(test.exp) {
				t.Fatalf("unexpected slot counts: %v; want %v", act, test.exp)
			}
		})
	}
}

func TestHashFactory(t *testing.T) {
	for _, name := range []string{"", "xxhash", "md5", "murmur3"} {
		if _, err := hashFactory(name); err != nil {
			t.Errorf("unexpected error for %q: %v", name, err)
		}
	}
	if _, err := hashFactory("crc32"); err == nil {
		t.Errorf("want error; got nothing")
	}
}

func TestMeasure(t *testing.T) {
	servers := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}
	objects := make([]string, 10000)
	for i := range objects {
		objects[i] = fmt.Sprintf("%016x", i)
	}
	for _, name := range []string{"xxhash", "md5", "murmur3"} {
		t.Run(name, func(t *testing.T) {
			h, err := hashFactory(name)
			if err != nil {
				t.Fatal(err)
			}
			r, err := measure(servers, objects, 1024, h)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.slots != 1024 {
				t.Fatalf("unexpected slots: %d", r.slots)
			}
			// Roughly a quarter of objects belong to the deleted server.
			if act := float64(r.moved) / float64(len(objects)); act < 0.2 || act > 0.3 {
				t.Fatalf("unexpected moved ratio: %.4f", act)
			}
		})
	}
}
