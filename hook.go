package slotring

// traceRing holds optional hooks called on ring mutations.
// The zero value is a no-op.
type traceRing struct {
	OnDelete func(node string) traceRingUpdate
	OnInsert func(node string) traceRingUpdate
}

// traceRingUpdate holds hooks called while a node's slots are being deleted
// from or inserted to the ring.
type traceRingUpdate struct {
	OnSlot func(slot int)
	OnDone func(n int, err error)
}

// Compose returns a new traceRing which has functional fields composed both
// from t and x.
func (t traceRing) Compose(x traceRing) (ret traceRing) {
	ret.OnDelete = composeUpdate(t.OnDelete, x.OnDelete)
	ret.OnInsert = composeUpdate(t.OnInsert, x.OnInsert)
	return ret
}

// Compose returns a new traceRingUpdate which has functional fields composed
// both from t and x.
func (t traceRingUpdate) Compose(x traceRingUpdate) (ret traceRingUpdate) {
	switch {
	case t.OnSlot == nil:
		ret.OnSlot = x.OnSlot
	case x.OnSlot == nil:
		ret.OnSlot = t.OnSlot
	default:
		h1, h2 := t.OnSlot, x.OnSlot
		ret.OnSlot = func(i int) {
			h1(i)
			h2(i)
		}
	}
	switch {
	case t.OnDone == nil:
		ret.OnDone = x.OnDone
	case x.OnDone == nil:
		ret.OnDone = t.OnDone
	default:
		h1, h2 := t.OnDone, x.OnDone
		ret.OnDone = func(n int, err error) {
			h1(n, err)
			h2(n, err)
		}
	}
	return ret
}

func composeUpdate(h1, h2 func(string) traceRingUpdate) func(string) traceRingUpdate {
	if h1 == nil {
		return h2
	}
	if h2 == nil {
		return h1
	}
	return func(node string) traceRingUpdate {
		return h1(node).Compose(h2(node))
	}
}

func (t traceRing) onDelete(node string) traceRingUpdate {
	if fn := t.OnDelete; fn != nil {
		return fn(node)
	}
	return traceRingUpdate{}
}

func (t traceRing) onInsert(node string) traceRingUpdate {
	if fn := t.OnInsert; fn != nil {
		return fn(node)
	}
	return traceRingUpdate{}
}

func (t traceRingUpdate) onSlot(i int) {
	if fn := t.OnSlot; fn != nil {
		fn(i)
	}
}

func (t traceRingUpdate) onDone(n int, err error) {
	if fn := t.OnDone; fn != nil {
		fn(n, err)
	}
}
