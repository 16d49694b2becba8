package mm

// PageSizeClass is implemented by the three marker types below and lets
// PhysFrame be generic over the size of frame it names, mirroring the
// original PhysFrame<S: PageSize> type parameter (spec.md §3). Go didn't
// have generics when the teacher (go.mod go 1.15) was written; this is the
// idiomatic rendition available to a module on Go 1.18+.
type PageSizeClass interface {
	Bytes() uint64
}

// Size4KiB marks a PhysFrame as a standard 4 KiB leaf frame.
type Size4KiB struct{}

// Bytes returns the size of a 4 KiB frame.
func (Size4KiB) Bytes() uint64 { return PageSize }

// Size2MiB marks a PhysFrame as a huge 2 MiB leaf frame (a PDE-level leaf,
// GLOSSARY).
type Size2MiB struct{}

// Bytes returns the size of a 2 MiB frame.
func (Size2MiB) Bytes() uint64 { return 2 * 1024 * 1024 }

// Size1GiB marks a PhysFrame as a huge 1 GiB leaf frame (a PDPTE-level
// leaf, GLOSSARY).
type Size1GiB struct{}

// Bytes returns the size of a 1 GiB frame.
func (Size1GiB) Bytes() uint64 { return 1024 * 1024 * 1024 }

// PhysFrame is a page-aligned physical address tagged with its size class
// S (spec.md §3). The frame allocator only ever produces PhysFrame[Size4KiB]
// values (spec.md §4.6, §1 Non-goals rule out allocating large pages on a
// caller's behalf); the 2 MiB and 1 GiB instantiations exist so a page-table
// entry that decodes to a huge frame can still be represented precisely.
type PhysFrame[S PageSizeClass] struct {
	addr PhysAddr
}

// PhysFrameContainingAddress returns the frame of size S that contains the
// given physical address.
func PhysFrameContainingAddress[S PageSizeClass](addr PhysAddr) PhysFrame[S] {
	var sz S
	mask := PhysAddr(sz.Bytes() - 1)
	return PhysFrame[S]{addr: addr &^ mask}
}

// StartAddress returns the frame's base physical address.
func (f PhysFrame[S]) StartAddress() PhysAddr {
	return f.addr
}

// PhysKind identifies which of the three size classes a Phys value holds.
type PhysKind uint8

const (
	// PhysSize4KiB tags a Phys value holding a 4 KiB frame.
	PhysSize4KiB PhysKind = iota
	// PhysSize2MiB tags a Phys value holding a 2 MiB frame.
	PhysSize2MiB
	// PhysSize1GiB tags a Phys value holding a 1 GiB frame.
	PhysSize1GiB
)

// Phys is a tagged union over the three PhysFrame size classes, used
// wherever a frame decoded from a page-table entry could be any of the
// three sizes (spec.md §3): PageTableEntry.Frame returns one of these
// rather than forcing the caller to pick a size ahead of the decode.
type Phys struct {
	kind PhysKind
	addr PhysAddr
}

// PhysFromFrame4KiB wraps a 4 KiB frame as a Phys value.
func PhysFromFrame4KiB(f PhysFrame[Size4KiB]) Phys {
	return Phys{kind: PhysSize4KiB, addr: f.addr}
}

// PhysFromFrame2MiB wraps a 2 MiB frame as a Phys value.
func PhysFromFrame2MiB(f PhysFrame[Size2MiB]) Phys {
	return Phys{kind: PhysSize2MiB, addr: f.addr}
}

// PhysFromFrame1GiB wraps a 1 GiB frame as a Phys value.
func PhysFromFrame1GiB(f PhysFrame[Size1GiB]) Phys {
	return Phys{kind: PhysSize1GiB, addr: f.addr}
}

// Kind reports which size class this Phys value holds.
func (p Phys) Kind() PhysKind {
	return p.kind
}

// StartAddress returns the underlying frame's base physical address,
// regardless of size class.
func (p Phys) StartAddress() PhysAddr {
	return p.addr
}
