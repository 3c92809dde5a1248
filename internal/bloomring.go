package internal

import (
	"hash/fnv"
	"sync"

	"github.com/riobard/go-bloom"
)

// Double FNV as the Bloom Filter hash
func doubleFNV(b []byte) (uint64, uint64) {
	hx := fnv.New64()
	hx.Write(b)
	x := hx.Sum64()
	hy := fnv.New64a()
	hy.Write(b)
	y := hy.Sum64()
	return x, y
}

// BloomRing is a ring of bloom filters. Entries rotate through fixed-size
// slots so that old entries eventually expire instead of saturating a single
// filter. Safe for concurrent use.
type BloomRing struct {
	slotCapacity int
	slotPosition int
	slotCount    int
	entryCounter int
	slots        []bloom.Filter
	mutex        sync.RWMutex
}

// NewBloomRing spreads capacity over slot filters with the given false
// positive rate.
func NewBloomRing(slot, capacity int, falsePositiveRate float64) *BloomRing {
	r := &BloomRing{
		slotCapacity: capacity / slot,
		slotCount:    slot,
		slots:        make([]bloom.Filter, slot),
	}
	for i := 0; i < slot; i++ {
		r.slots[i] = bloom.New(r.slotCapacity, falsePositiveRate, doubleFNV)
	}
	return r
}

// Add records b. When the current slot fills up the ring advances and the
// oldest slot is reset.
func (r *BloomRing) Add(b []byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	slot := r.slots[r.slotPosition]
	if r.entryCounter > r.slotCapacity {
		r.slotPosition = (r.slotPosition + 1) % r.slotCount
		slot = r.slots[r.slotPosition]
		slot.Reset()
		r.entryCounter = 0
	}
	r.entryCounter++
	slot.Add(b)
}

// Test reports whether b may have been added to any live slot.
func (r *BloomRing) Test(b []byte) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, s := range r.slots {
		if s.Test(b) {
			return true
		}
	}
	return false
}
