package vmm

import (
	"vmkernel/kernel"
	"vmkernel/kernel/mm"
)

// TranslateAddr walks the active hierarchy starting at root and resolves
// addr to a physical address, or returns ok=false if any level along the
// path is not present (spec.md §4.3).
//
// The walk descends from level 3 (root) to level 0 (leaf), stopping early
// if it encounters a 2 MiB or 1 GiB huge frame. The residual offset kept
// at that point must be the low 21 or 30 bits of addr, not just the 12-bit
// page offset — stopping early and still using the 12-bit offset is the
// huge-page translation bug spec.md §9 calls out; this implementation uses
// ResidualMask to preserve the correct remainder at each possible stop.
func TranslateAddr(root *PageTable, addr mm.VirtAddr) (phys mm.PhysAddr, ok bool) {
	table := root

	for i := uint(0); i < 4; i++ {
		level := 3 - i
		index := addr.PageTableIndex(level)
		entry := table.Entry(index)

		frame, present := entry.Frame(level)
		if !present {
			return 0, false
		}

		switch frame.Kind() {
		case mm.PhysSize2MiB:
			residual := uint64(addr) & mm.ResidualMask(21)
			return mm.PhysAddr(uint64(frame.StartAddress()) + residual), true
		case mm.PhysSize1GiB:
			residual := uint64(addr) & mm.ResidualMask(30)
			return mm.PhysAddr(uint64(frame.StartAddress()) + residual), true
		default:
			if level == 0 {
				residual := uint64(addr.PageOffset())
				return mm.PhysAddr(uint64(frame.StartAddress()) + residual), true
			}
			table = tableAt(frame)
		}
	}

	// Unreachable: the loop above always returns by level 0.
	return 0, false
}

// MapPage installs newEntry for page in the hierarchy rooted at root,
// allocating fresh intermediate tables from alloc as needed (spec.md §4.4).
//
// The walk descends levels 3, 2, 1 (the three intermediate levels) before
// installing newEntry at level 0. At each intermediate level:
//   - an absent entry gets a freshly allocated, zeroed frame linked in with
//     PRESENT|WRITABLE, then the walk continues into it;
//   - a present entry pointing at another table is simply descended into;
//   - a present entry pointing at a huge frame is a mapping conflict at a
//     huge boundary (only possible against a bootloader-installed huge
//     mapping): ErrPageAlreadyMapped if that leaf is already installed,
//     otherwise newEntry is installed at the huge slot directly.
//
// TLB invalidation of page's address is the caller's responsibility
// (spec.md §4.4, §9); MapPage never calls INVLPG itself.
func MapPage(root *PageTable, page mm.Page, newEntry PageTableEntry, alloc FrameAllocator) *kernel.Error {
	table := root
	addr := page.Address()

	for level := uint(3); level >= 1; level-- {
		index := addr.PageTableIndex(level)
		entry := table.Entry(index)

		if !entry.HasFlags(FlagPresent) {
			frame, allocErr := alloc.Allocate()
			if allocErr != nil {
				return ErrFrameAllocation
			}
			child := tableAt(mm.PhysFromFrame4KiB(frame))
			kernel.Memset(addrOfTable(child), 0, uintptr(mm.PageSize))
			table.SetEntry(index, NewPageTableEntry(frame.StartAddress(), FlagPresent|FlagWritable))
			table = child
			continue
		}

		frame, _ := entry.Frame(level)
		if frame.Kind() == mm.PhysSize4KiB {
			table = tableAt(frame)
			continue
		}

		// Present entry pointing at a huge frame: conflict at a huge
		// boundary (spec.md §4.4). This is only reachable against a
		// bootloader-installed mapping; a hierarchy built entirely by
		// MapPage never creates huge leaves at an intermediate level.
		if entry.HasFlags(FlagPresent) {
			return ErrPageAlreadyMapped
		}
		table.SetEntry(index, newEntry)
		return nil
	}

	leafIndex := addr.PageTableIndex(0)
	if table.Entry(leafIndex).HasFlags(FlagPresent) {
		return ErrPageAlreadyMapped
	}
	table.SetEntry(leafIndex, newEntry)
	return nil
}
