package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapAllocateStartsAtRefcountZero(t *testing.T) {
	h := NewHeap()
	payload := NewStruct("Point", []string{"x", "y"})
	addr := h.Allocate(payload)

	require.EqualValues(t, 1, h.Allocated())
	require.EqualValues(t, 1, h.Live())

	// One retain and one release bring a refcount-0 allocation back to zero.
	h.Retain(addr)
	require.NoError(t, h.Release(addr))
	require.EqualValues(t, 0, h.Live())
	require.EqualValues(t, 1, h.Freed())
}

func TestHeapDereferenceDanglingAddressSegfaults(t *testing.T) {
	h := NewHeap()
	payload := NewStruct("Point", []string{"x", "y"})
	addr := h.Allocate(payload)
	h.Retain(addr)
	require.NoError(t, h.Release(addr))

	_, err := h.Dereference(addr)
	require.EqualError(t, err, "Segmentation Fault")
}

func TestHeapReleaseUnderflowReportsError(t *testing.T) {
	h := NewHeap()
	payload := NewStruct("Point", []string{"x", "y"})
	addr := h.Allocate(payload)
	h.Retain(addr)
	require.NoError(t, h.Release(addr))
	err := h.Release(addr)
	require.EqualError(t, err, "Ref count underflow")
}

func TestHeapReleaseFreesFieldsRecursively(t *testing.T) {
	h := NewHeap()
	inner := NewStruct("Inner", []string{"n"})
	inner.Fields["n"] = PrimInt{Val: 7}
	innerAddr := h.Allocate(inner)
	h.Retain(innerAddr)

	outer := NewStruct("Outer", []string{"inner"})
	outer.Fields["inner"] = ClassRefValue{Address: innerAddr, TypeName: "Inner"}
	outerAddr := h.Allocate(outer)
	h.Retain(outerAddr)

	require.EqualValues(t, 2, h.Live())
	require.NoError(t, h.Release(outerAddr))
	require.EqualValues(t, 0, h.Live())
}

func TestHeapRetainReleaseAreRaceFreeUnderConcurrency(t *testing.T) {
	h := NewHeap()
	payload := NewStruct("Shared", []string{"n"})
	addr := h.Allocate(payload)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Retain(addr)
		}()
	}
	wg.Wait()

	var releaseWg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		releaseWg.Add(1)
		go func(idx int) {
			defer releaseWg.Done()
			errs[idx] = h.Release(addr)
		}(i)
	}
	releaseWg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 0, h.Live())
	require.EqualValues(t, 1, h.Freed())
}
