package runtime

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Address is the heap's opaque, equality-comparable token. A UUIDv4
// satisfies spec.md §4.4's "random opaque token sufficient to guarantee
// uniqueness for the process" requirement.
type Address uuid.UUID

func (a Address) String() string { return uuid.UUID(a).String() }

type cell struct {
	payload  *StructValue
	refcount int32
}

// Heap is the thread-safe reference-counted object store backing every
// class instance. All four operations below are safe under concurrent
// access from multiple evaluators sharing the same Heap.
type Heap struct {
	mu        sync.RWMutex
	cells     map[Address]*cell
	allocated int64
	freed     int64
}

// NewHeap constructs an empty heap.
func NewHeap() *Heap {
	return &Heap{cells: make(map[Address]*cell)}
}

// Allocate stores payload under a fresh address at refcount 0 and
// returns the address. Allocating at refcount 0 is deliberate: the
// caller wraps the address in a ClassRefValue, and the first retain
// happens when that ClassRef is stored into a binding.
func (h *Heap) Allocate(payload *StructValue) Address {
	addr := Address(uuid.New())
	h.mu.Lock()
	h.cells[addr] = &cell{payload: payload, refcount: 0}
	h.mu.Unlock()
	atomic.AddInt64(&h.allocated, 1)
	return addr
}

// Dereference returns the payload at address, failing with
// "Segmentation Fault" if the address is no longer present.
func (h *Heap) Dereference(addr Address) (*StructValue, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.cells[addr]
	if !ok {
		return nil, fmt.Errorf("Segmentation Fault")
	}
	return c.payload, nil
}

// Retain bumps address's refcount by one.
func (h *Heap) Retain(addr Address) {
	h.mu.RLock()
	c, ok := h.cells[addr]
	h.mu.RUnlock()
	if !ok {
		return
	}
	atomic.AddInt32(&c.refcount, 1)
}

// Release decrements address's refcount by one. Reaching zero frees the
// payload, recursively releasing its fields; going negative, or releasing
// an address that has already been freed, raises "Ref count underflow".
// The free transition is synchronized under the
// heap's write lock so at most one goroutine observes the 0-crossing.
func (h *Heap) Release(addr Address) error {
	h.mu.RLock()
	c, ok := h.cells[addr]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("Ref count underflow")
	}
	n := atomic.AddInt32(&c.refcount, -1)
	switch {
	case n == 0:
		h.mu.Lock()
		// Re-check under the write lock: another goroutine may have
		// already freed and removed this cell between the RUnlock
		// above and acquiring the write lock here.
		if cur, stillLive := h.cells[addr]; stillLive && cur == c && atomic.LoadInt32(&c.refcount) == 0 {
			delete(h.cells, addr)
			h.mu.Unlock()
			atomic.AddInt64(&h.freed, 1)
			for _, f := range c.payload.Fields {
				f.Release(h)
			}
			return nil
		}
		h.mu.Unlock()
		return nil
	case n < 0:
		return fmt.Errorf("Ref count underflow")
	default:
		return nil
	}
}

// Allocated reports the total number of class instances ever allocated.
func (h *Heap) Allocated() int64 { return atomic.LoadInt64(&h.allocated) }

// Live reports the number of class instances not yet freed.
func (h *Heap) Live() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return int64(len(h.cells))
}

// Freed reports the total number of class instances freed so far.
func (h *Heap) Freed() int64 { return atomic.LoadInt64(&h.freed) }
