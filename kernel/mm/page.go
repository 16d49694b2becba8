package mm

// Page is a 4 KiB-aligned virtual address (spec.md §3). Unlike the page
// index the teacher's own mm.Page represents, this Page stores the address
// itself — the spec's Page arithmetic and range iteration are defined in
// terms of addresses, not indices, and original_source/virt_addr.rs makes
// the same choice.
type Page struct {
	addr VirtAddr
}

// PageContainingAddress returns the page that contains the given address,
// i.e. the page whose address is v rounded down to the nearest 4 KiB
// boundary.
func PageContainingAddress(v VirtAddr) Page {
	return Page{addr: v.AlignDown()}
}

// Address returns the page's base virtual address.
func (p Page) Address() VirtAddr {
	return p.addr
}

// AsU64 returns the page's base address as a plain integer.
func (p Page) AsU64() uint64 {
	return p.addr.AsU64()
}

// Add returns the page k pages after p (spec.md §4.1: (P+k).as_u64() ==
// P.as_u64() + 4096*k). k may not be negative; pages only grow upward in
// this kernel.
func (p Page) Add(k uint64) Page {
	return Page{addr: VirtAddr(p.addr.AsU64() + k*PageSize)}
}

// Less reports whether p sorts before other by address, giving Page a
// total order.
func (p Page) Less(other Page) bool {
	return p.addr < other.addr
}

// PageRange is a half-open iteration over pages from Start (inclusive) to
// End (exclusive). spec.md §9 flags the original PageRangeInclusive name as
// a misnomer for exactly this half-open behavior; this type is named for
// what it does rather than carry the original name forward.
type PageRange struct {
	start, end Page
}

// NewPageRange builds the page range [start, end).
func NewPageRange(start, end Page) PageRange {
	return PageRange{start: start, end: end}
}

// Len returns the number of pages the range yields: ceil((end-start)/4096)
// when end > start, else zero (spec.md §8).
func (r PageRange) Len() uint64 {
	if r.end.addr <= r.start.addr {
		return 0
	}
	span := uint64(r.end.addr) - uint64(r.start.addr)
	return (span + PageSize - 1) / PageSize
}

// Cursor returns an iterator positioned at the start of the range. Calling
// convention mirrors the teacher's ring buffer cursors: call Next until ok
// is false.
func (r PageRange) Cursor() *PageRangeCursor {
	return &PageRangeCursor{next: r.start, end: r.end}
}

// PageRangeCursor walks a PageRange one page at a time.
type PageRangeCursor struct {
	next Page
	end  Page
}

// Next returns the next page in the range and true, or the zero Page and
// false once the cursor has reached the end.
func (c *PageRangeCursor) Next() (Page, bool) {
	if c.next.addr >= c.end.addr {
		return Page{}, false
	}
	p := c.next
	c.next = c.next.Add(1)
	return p, true
}

// Frame is a physically contiguous, page-aligned 4 KiB span of RAM
// (GLOSSARY). The frame allocator hands out PhysFrame[Size4KiB] values, not
// Frame; frames of every size class are represented by PhysFrame[S] and Phys.
type Frame struct {
	addr PhysAddr
}

// InvalidFrame is a sentinel Frame that names no usable memory (mirrors the
// teacher's mm.InvalidFrame sentinel, adapted to this package's
// address-based Frame instead of an index-based one). The frame allocator
// does not return it; it reports exhaustion with an error.
var InvalidFrame = Frame{addr: ^PhysAddr(0)}

// Valid reports whether f is not the InvalidFrame sentinel.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// FrameContainingAddress returns the 4 KiB frame that contains the given
// physical address.
func FrameContainingAddress(p PhysAddr) Frame {
	return Frame{addr: p &^ (PageSize - 1)}
}

// Address returns the frame's base physical address.
func (f Frame) Address() PhysAddr {
	return f.addr
}
