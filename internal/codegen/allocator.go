package codegen

import "container/heap"

// allocator hands out Registers on demand: acquire pops the smallest
// freed index if one exists, else bumps high to claim a fresh one.
// release returns an index to the free pool. peak records the largest
// index ever handed out, which becomes R[]'s declared size.
type allocator struct {
	free registerHeap
	high int
	peak int
}

func newAllocator() *allocator {
	a := &allocator{}
	heap.Init(&a.free)
	return a
}

func (a *allocator) acquire() Register {
	if a.free.Len() > 0 {
		idx := heap.Pop(&a.free).(int)
		return Register(idx)
	}
	idx := a.high
	a.high++
	if a.high > a.peak {
		a.peak = a.high
	}
	return Register(idx)
}

func (a *allocator) release(r Register) {
	heap.Push(&a.free, int(r))
}

// size returns the register file size to declare: one past the
// highest index ever acquired.
func (a *allocator) size() int {
	if a.peak == 0 {
		return 1
	}
	return a.peak
}
