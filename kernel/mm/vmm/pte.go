// Package vmm implements the page-table entry model and the page-table
// walk/map algorithms against the active hierarchy (spec.md §3, §4.2-§4.5).
// Unlike the teacher's vmm package, which accesses inactive-table slots
// through a recursive self-mapping trick, this package walks tables through
// the physical-memory offset the bootloader establishes (spec.md §4.3,
// §6, GLOSSARY) — the scheme original_source/memory.rs and pagetable.rs
// use, and the one spec.md's walk/map pseudocode assumes.
package vmm

import "vmkernel/kernel/mm"

// Flag is a single bit of a PageTableEntry's flag word (spec.md §3).
type Flag uint64

const (
	// FlagPresent marks the entry as backed by a frame currently in memory.
	FlagPresent Flag = 1 << 0

	// FlagWritable allows writes through this mapping.
	FlagWritable Flag = 1 << 1

	// FlagUserAccessible permits user-mode access to this mapping. Unused
	// by this kernel (no user/kernel address-space split), kept because
	// it's part of the hardware entry layout spec.md §3 names.
	FlagUserAccessible Flag = 1 << 2

	// FlagWriteThrough selects write-through caching over write-back.
	FlagWriteThrough Flag = 1 << 3

	// FlagDisableCache marks the mapping as uncacheable.
	FlagDisableCache Flag = 1 << 4

	// FlagAccessed is set by the CPU the first time the mapping is used.
	FlagAccessed Flag = 1 << 5

	// FlagDirty is set by the CPU the first time the mapping is written.
	FlagDirty Flag = 1 << 6

	// FlagHugePage marks a PDPTE or PDE as a leaf (1 GiB or 2 MiB frame)
	// instead of pointing at another table (spec.md §4.2, GLOSSARY).
	FlagHugePage Flag = 1 << 7

	// FlagGlobal exempts the mapping from TLB invalidation on a CR3 reload.
	FlagGlobal Flag = 1 << 8

	// FlagNoExecute forbids instruction fetch through this mapping.
	FlagNoExecute Flag = 1 << 63
)

// physAddrMask extracts bits [12,52) of a raw entry word, the range that
// holds a target frame's physical address (spec.md §3).
const physAddrMask = 0x000f_ffff_ffff_f000

// PageTableEntry is a single 64-bit page-table entry (spec.md §3, §4.2):
// bits [12,52) hold the target physical frame address, the remaining bits
// hold the flags above. A zero entry means "not present".
type PageTableEntry uint64

// NewPageTableEntry builds an entry pointing at the start address of addr
// with the given flags set (spec.md §4.2). It does not validate that
// FlagHugePage is consistent with the frame size the caller intends — that
// is the caller's responsibility, exactly as spec.md §4.2 specifies.
func NewPageTableEntry(addr mm.PhysAddr, flags Flag) PageTableEntry {
	return PageTableEntry(uint64(addr)&physAddrMask | uint64(flags))
}

// HasFlags reports whether every bit in flags is set on the entry.
func (e PageTableEntry) HasFlags(flags Flag) bool {
	return uint64(e)&uint64(flags) == uint64(flags)
}

// Flags returns the entry's flag bits: every bit that is not one of the
// flags defined above, the physical-address bits included, is dropped
// (spec.md §4.2: flags() is from_bits_truncate of the raw word).
func (e PageTableEntry) Flags() Flag {
	const known = FlagPresent | FlagWritable | FlagUserAccessible | FlagWriteThrough |
		FlagDisableCache | FlagAccessed | FlagDirty | FlagHugePage | FlagGlobal | FlagNoExecute
	return Flag(uint64(e)) & known
}

// rawAddr returns the physical address bits of the entry, independent of
// any size interpretation.
func (e PageTableEntry) rawAddr() mm.PhysAddr {
	return mm.PhysAddr(uint64(e) & physAddrMask)
}

// errHugePageWrongLevel is the invariant-violation panic value spec.md §4.2
// and §7 require when HUGE_PAGE is set at a level that can't hold a huge
// frame (level 0 is always a 4 KiB leaf; level 3 is the root and never a
// leaf).
const errHugePageWrongLevel = "huge page mapped at wrong level"

// Frame decodes the target frame this entry points to at the given walk
// level (spec.md §4.2). Level 0 is the leaf (a PTE), level 1 a PDE, level 2
// a PDPTE, level 3 the root (GLOSSARY). Returns ok=false if the entry is
// not present.
func (e PageTableEntry) Frame(level uint) (frame mm.Phys, ok bool) {
	if !e.HasFlags(FlagPresent) {
		return mm.Phys{}, false
	}

	if e.HasFlags(FlagHugePage) {
		switch level {
		case 2:
			return mm.PhysFromFrame1GiB(mm.PhysFrameContainingAddress[mm.Size1GiB](e.rawAddr())), true
		case 1:
			return mm.PhysFromFrame2MiB(mm.PhysFrameContainingAddress[mm.Size2MiB](e.rawAddr())), true
		default:
			panic(errHugePageWrongLevel)
		}
	}

	return mm.PhysFromFrame4KiB(mm.PhysFrameContainingAddress[mm.Size4KiB](e.rawAddr())), true
}
