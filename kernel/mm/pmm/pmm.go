// Package pmm implements the physical frame allocator: a bump allocator
// over the USABLE regions of the firmware memory map (spec.md §4.6). It is
// grounded on the teacher's BootMemAllocator idiom (a scanning allocator
// used to bootstrap the kernel before a reclaiming allocator exists) and
// on original_source/allocator.rs's BootInfoAllocator, which this package
// follows more closely: frames are produced by flattening the usable
// regions into a single 4 KiB-stepped sequence and indexing into it with a
// monotonically increasing counter, rather than scanning from scratch on
// every call.
package pmm

import (
	"vmkernel/bootinfo"
	"vmkernel/kernel"
	"vmkernel/kernel/mm"
	ksync "vmkernel/kernel/sync"
)

var errOutOfMemory = &kernel.Error{Module: "pmm", Message: "frame allocator exhausted"}

// Allocator is a bump allocator over a firmware memory map's USABLE
// regions (spec.md §4.6). The zero value is not usable; construct one with
// New. Frames are never reclaimed — a documented limitation spec.md §3
// Lifecycle and §9 both call out, not an oversight.
type Allocator struct {
	mu   ksync.Spinlock
	mm   bootinfo.MemoryMap
	next uint64
}

// New builds an Allocator over the given memory map. The caller (boot code,
// out of scope here) must guarantee every region marked Usable is actually
// unused — the allocator trusts the map completely, per spec.md §4.6.
func New(memoryMap bootinfo.MemoryMap) *Allocator {
	return &Allocator{mm: memoryMap}
}

// Allocate returns the next never-before-returned 4 KiB frame from the
// usable regions, or errOutOfMemory once the sequence is exhausted
// (spec.md §4.6). The same index into the usable-frame sequence always
// names the same frame across calls, since the underlying memory map never
// changes after boot — Allocate's determinism follows directly from that.
func (a *Allocator) Allocate() (mm.PhysFrame[mm.Size4KiB], *kernel.Error) {
	a.mu.Acquire()
	defer a.mu.Release()

	target := a.next
	var (
		found mm.PhysFrame[mm.Size4KiB]
		ok    bool
		index uint64
	)

	a.mm.VisitUsable(func(region bootinfo.MemoryRegion) bool {
		start := region.StartAddr &^ (mm.PageSize - 1)
		if start < region.StartAddr {
			start += mm.PageSize
		}
		for frameAddr := start; frameAddr+mm.PageSize <= region.EndAddr; frameAddr += mm.PageSize {
			if index == target {
				found = mm.PhysFrameContainingAddress[mm.Size4KiB](mm.PhysAddr(frameAddr))
				ok = true
				return false
			}
			index++
		}
		return true
	})

	if !ok {
		return mm.PhysFrame[mm.Size4KiB]{}, errOutOfMemory
	}

	a.next++
	return found, nil
}

// Allocated reports how many frames this allocator has handed out so far.
func (a *Allocator) Allocated() uint64 {
	a.mu.Acquire()
	defer a.mu.Release()
	return a.next
}
