// Package heap bootstraps the kernel's general-purpose allocator: it maps
// the heap's virtual range via the active page-table hierarchy and then
// hands that range to a linked-list free-list allocator (spec.md §4.7),
// grounded on original_source/allocator.rs's init_heap, which performs the
// same two steps against the `linked_list_allocator` crate. No Go package
// in the example pack can play that crate's role: every third-party
// allocator in the ecosystem assumes a running Go runtime to allocate
// through, which is exactly what this package exists to bootstrap before
// it's available — so the free-list itself is hand-written here, the same
// way the teacher never reaches for a third-party allocator either.
package heap

import (
	"vmkernel/kernel"
	"vmkernel/kernel/mm"
	"vmkernel/kernel/mm/vmm"
	ksync "vmkernel/kernel/sync"
)

// Start is the virtual address the kernel heap begins at. The exact value
// matters: spec.md §8's allocation tests assume this address and Size
// below are large enough to satisfy them without running out of memory.
const Start = 0x4444_4444_0000

// Size is the number of bytes the kernel heap spans.
const Size = 102_400

var errHeapInit = &kernel.Error{Module: "heap", Message: "heap initialization failed"}

// Init maps [Start, Start+Size) page by page through root using frames
// from alloc, installing PRESENT|WRITABLE entries, then hands the range to
// the package-level free-list allocator (spec.md §4.7). Any mapping error
// or allocator exhaustion along the way aborts with a single opaque
// failure, exactly as spec.md §7 specifies for heap init — the caller gets
// no partial-progress detail because a partially mapped heap is not a
// state worth distinguishing from a clean failure; boot aborts either way.
func Init(root *vmm.PageTable, alloc vmm.FrameAllocator) *kernel.Error {
	heapStart := mm.PageContainingAddress(mm.VirtAddr(Start))
	heapEnd := mm.PageContainingAddress(mm.VirtAddr(Start + Size - 1))
	pageRange := mm.NewPageRange(heapStart, heapEnd.Add(1))

	cur := pageRange.Cursor()
	for {
		page, ok := cur.Next()
		if !ok {
			break
		}

		frame, allocErr := alloc.Allocate()
		if allocErr != nil {
			return errHeapInit
		}

		entry := vmm.NewPageTableEntry(frame.StartAddress(), vmm.FlagPresent|vmm.FlagWritable)
		if mapErr := vmm.MapPage(root, page, entry, alloc); mapErr != nil {
			return errHeapInit
		}
	}

	globalHeap.init(Start, Size)
	return nil
}

// globalHeap is the process-wide general-purpose allocator the heap hands
// control to once Init succeeds (spec.md §5: "General heap: single mutex
// inside the linked-list allocator").
var globalHeap freeListAllocator

// Alloc returns a pointer to size bytes of heap memory, or ok=false if the
// request can't be satisfied from the free list.
func Alloc(size uintptr) (addr uintptr, ok bool) {
	return globalHeap.alloc(size)
}

// Free returns a previously allocated block to the free list.
func Free(addr uintptr, size uintptr) {
	globalHeap.free(addr, size)
}

// freeBlock is one node of the free list: a run of size free bytes
// starting at addr, chained to the next free run.
type freeBlock struct {
	addr uintptr
	size uintptr
	next *freeBlock
}

// freeListAllocator is a minimal first-fit linked-list allocator over a
// single contiguous range, the Go-native equivalent of the
// `linked_list_allocator` crate original_source/allocator.rs hands the
// mapped heap range to.
type freeListAllocator struct {
	mu    ksync.Spinlock
	head  *freeBlock
	nodes []freeBlock
	next  int
}

// nodePoolSize bounds how many free-list nodes this allocator can track at
// once. The heap itself has no metadata region to carve nodes out of
// before it has an allocator, so node storage is a fixed Go-level array
// instead — plenty for a 102400-byte heap doing the kind of small,
// short-lived allocations spec.md §8 exercises.
const nodePoolSize = 256

func (f *freeListAllocator) init(start, size uintptr) {
	f.mu.Acquire()
	defer f.mu.Release()

	f.nodes = make([]freeBlock, nodePoolSize)
	f.next = 0
	f.head = f.newNode(start, size)
}

func (f *freeListAllocator) newNode(addr, size uintptr) *freeBlock {
	if f.next >= len(f.nodes) {
		return nil
	}
	n := &f.nodes[f.next]
	f.next++
	n.addr, n.size, n.next = addr, size, nil
	return n
}

func (f *freeListAllocator) alloc(size uintptr) (uintptr, bool) {
	f.mu.Acquire()
	defer f.mu.Release()

	var prev *freeBlock
	for b := f.head; b != nil; b = b.next {
		if b.size < size {
			prev = b
			continue
		}

		addr := b.addr
		if b.size == size {
			if prev == nil {
				f.head = b.next
			} else {
				prev.next = b.next
			}
		} else {
			b.addr += size
			b.size -= size
		}
		return addr, true
	}
	return 0, false
}

func (f *freeListAllocator) free(addr, size uintptr) {
	f.mu.Acquire()
	defer f.mu.Release()

	n := f.newNode(addr, size)
	if n == nil {
		// Out of free-list node storage: the block is leaked rather than
		// tracked. Frame reclamation has the same limitation (spec.md §9).
		return
	}
	n.next = f.head
	f.head = n
}
