package main

import (
	"crypto/md5"
	"encoding/binary"
	"flag"
	"fmt"
	"hash"
	"log"
	"math"
	"math/rand"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gobwas/avl"
	"github.com/gobwas/slotring"
	"github.com/spaolacci/murmur3"
)

func main() {
	var (
		p        int    // Number of goroutines.
		n        int    // Number of objects.
		s        int    // Number of servers on the ring.
		lo       int    // Min number of slots.
		hi       int    // Max number of slots.
		step     int    // Step between lo and hi.
		ss       string // Comma-separated slot counts list.
		csv      bool
		hashFunc string // Optional hash function name.

		verbose bool
		silent  bool
	)
	flag.IntVar(&p,
		"parallelism", runtime.NumCPU(),
		"number of concurrent processors",
	)
	flag.IntVar(&n,
		"objects", 1e6,
		"number of objects to spread on ring",
	)
	flag.IntVar(&s,
		"servers", 8,
		"number of servers to place on ring",
	)
	flag.IntVar(&lo,
		"lo", 0,
		"number of slots to start from",
	)
	flag.IntVar(&hi,
		"hi", 0,
		"number of slots to end at",
	)
	flag.IntVar(&step,
		"step", 0,
		"step between lo and hi; number of servers if zero",
	)
	flag.StringVar(&ss,
		"slots", strconv.Itoa(slotring.DefaultSlots),
		"comma-separated list of slot counts",
	)
	flag.StringVar(&hashFunc,
		"hash", "",
		"hash function to be used (xxhash, md5 or murmur3)",
	)
	flag.BoolVar(&verbose,
		"v", false,
		"be verbose",
	)
	flag.BoolVar(&silent,
		"s", false,
		"be silent",
	)
	flag.BoolVar(&csv,
		"csv", true,
		"print csv to standard output",
	)

	flag.Parse()

	logf := func(f string, args ...interface{}) {
		if !verbose {
			return
		}
		log.Printf(f, args...)
	}
	printf := func(f string, args ...interface{}) {
		if silent {
			return
		}
		fmt.Fprintf(os.Stderr, f, args...)
	}

	newHash, err := hashFactory(hashFunc)
	if err != nil {
		log.Fatal(err)
	}

	// Prepare servers to be put on ring(s).
	servers := make([]string, s)
	seenSrv := make(map[string]bool)
	for i := 0; i < s; {
		var b [4]byte
		_, err := rand.Read(b[:])
		if err != nil {
			panic(err)
		}
		ip := net.IPv4(b[0], b[1], b[2], b[3])
		s := ip.String()
		if seenSrv[s] {
			logf("#%d server duplicated; repeat", i)
			continue
		}
		seenSrv[s] = true
		servers[i] = s
		i++
	}
	logf("%d servers are ready", len(servers))

	// Prepare objects to be spread across servers on ring(s).
	objects := make([]string, n)
	seenObj := make(map[string]bool)
	for i := 0; i < n; {
		s := fmt.Sprintf("%016x", rand.Intn(math.MaxInt64))
		if seenObj[s] {
			logf("#%d object duplicated; repeat", i)
			continue
		}
		seenObj[s] = true
		objects[i] = s
		i++
	}
	logf("%d objects are ready", len(objects))

	counts, err := slotCounts(ss, lo, hi, step, s)
	if err != nil {
		log.Fatal(err)
	}
	logf("%d slot counts are ready", counts.Size())

	var (
		work    = make(chan int)
		stop    = make(chan struct{})
		done    = make(chan struct{}, p)
		results = make(chan result, 1)
	)
	for i := 0; i < p; i++ {
		go func() {
			defer func() {
				done <- struct{}{}
			}()
			for {
				var v int
				select {
				case <-stop:
					return
				case v = <-work:
					// Process below.
				}
				r, err := measure(servers, objects, v, newHash)
				if err != nil {
					log.Fatalf("%d slots: %v", v, err)
				}
				results <- r
			}
		}()
	}

	go func() {
		counts.InOrder(func(x avl.Item) bool {
			select {
			case <-stop:
				return false
			case work <- int(x.(slotCount)):
				return true
			}
		})
		close(stop)
		for i := 0; i < p; i++ {
			<-done
		}
		close(results)
	}()

	var t avl.Tree
	for r := range results {
		t, _ = t.Insert(r)
		printf(".")
		if n := t.Size(); n%80 == 0 {
			c := counts.Size()
			printf(
				"%d/%d(%.1f%%)\n",
				n, c,
				float64(n)/float64(c)*100, // Progress percentage.
			)
		}
	}
	printf("\n")

	tw := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	t.InOrder(func(x avl.Item) bool {
		r := x.(result)
		var (
			devPct   = r.stddev / float64(n) * 100
			movedPct = float64(r.moved) / float64(n) * 100
		)
		logf(
			"%04d: stddev=%.2f(%.2f%%) moved=%d(%.2f%%) latency=%s\n",
			r.slots,
			r.stddev, devPct,
			r.moved, movedPct,
			r.latency,
		)
		if csv {
			fmt.Fprintf(tw,
				"%d,\t%.4f,\t%.4f,\t%.2f\n",
				r.slots, devPct, movedPct,
				r.latency.Seconds()*1000,
			)
		}
		return true
	})
	tw.Flush()

	printf("OK")
}

// measure builds a ring of given number of slots, spreads objects across
// servers, then deletes the first server and counts objects which moved.
func measure(servers, objects []string, slots int, h func() hash.Hash64) (ret result, err error) {
	ret.slots = slots

	start := time.Now()
	r, err := slotring.New(slotring.Config{
		Nodes: servers,
		Slots: slots,
		Hash:  h,
	})
	if err != nil {
		return ret, err
	}
	ret.latency = time.Since(start)

	prev := make([]string, len(objects))
	distribution := make(map[string]int, len(servers))
	for i, obj := range objects {
		srv, err := r.Get(obj)
		if err != nil {
			return ret, err
		}
		prev[i] = srv
		distribution[srv]++
	}
	mean := float64(len(objects)) / float64(len(servers))
	var variance float64
	for _, srv := range servers {
		variance += math.Pow(float64(distribution[srv])-mean, 2)
	}
	// Divide by number of servers as for mean.
	variance /= float64(len(servers))
	ret.stddev = math.Sqrt(variance)

	if len(servers) < 2 {
		return ret, nil
	}
	del := servers[0]
	if err := r.Delete(del); err != nil {
		return ret, err
	}
	for i, obj := range objects {
		srv, err := r.Get(obj)
		if err != nil {
			return ret, err
		}
		if srv == prev[i] {
			continue
		}
		if prev[i] != del {
			return ret, fmt.Errorf(
				"object %s moved between live servers: %s -> %s",
				obj, prev[i], srv,
			)
		}
		ret.moved++
	}
	return ret, nil
}

func hashFactory(name string) (func() hash.Hash64, error) {
	switch name {
	case "", "xxhash":
		return nil, nil
	case "md5":
		return func() hash.Hash64 {
			return newHash64(md5.New())
		}, nil
	case "murmur3":
		return murmur3.New64, nil
	default:
		return nil, fmt.Errorf("unexpected hash function: %q", name)
	}
}

// slotCounts merges range of slot counts (from lo to hi) with manually
// specified counts in list. Tree is used to autofix duplicates (if any).
func slotCounts(list string, lo, hi, step, servers int) (t avl.Tree, _ error) {
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		c, err := strconv.Atoi(s)
		if err != nil {
			return t, err
		}
		t, _ = t.Insert(slotCount(c))
	}
	if step <= 0 {
		step = servers
	}
	if step <= 0 {
		step = 1
	}
	for c := lo; c < hi; c += step {
		t, _ = t.Insert(slotCount(c))
	}
	return t, nil
}

type result struct {
	slots   int
	latency time.Duration
	stddev  float64
	moved   int
}

func (r result) Compare(x avl.Item) int {
	return r.slots - x.(result).slots
}

type slotCount int

func (c slotCount) Compare(x avl.Item) int {
	return int(c - x.(slotCount))
}

type hash64 struct {
	hash.Hash
}

func newHash64(h hash.Hash) hash.Hash64 {
	return &hash64{Hash: h}
}

func (h *hash64) Sum64() uint64 {
	if h.Size() < 8 {
		panic("too small hash")
	}
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}
