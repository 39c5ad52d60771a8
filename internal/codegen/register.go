package codegen

import "fmt"

// Register names one slot of the generated program's integer register
// file R[]. It is a tagged int, not a bare one, so call sites read
// reg.String() instead of formatting a raw index themselves.
type Register int

func (r Register) String() string { return fmt.Sprintf("R[%d]", int(r)) }

// registerHeap is a min-heap of freed register indices. acquire pops
// the smallest freed index, or bumps a monotone high-water mark when
// none is free; release pushes an index back onto the heap. This is
// the same discipline as a free-list allocator with a bump fallback.
type registerHeap []int

func (h registerHeap) Len() int            { return len(h) }
func (h registerHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h registerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *registerHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *registerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
