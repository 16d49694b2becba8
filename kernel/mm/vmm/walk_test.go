package vmm

import (
	"os"
	"testing"
	"unsafe"
	"vmkernel/kernel"
	"vmkernel/kernel/mm"
)

// TestMain sets the physical-memory offset to 0 before any test in this
// package runs, so tableAt resolves a frame's address as a literal Go
// pointer the way the hosted fixtures in this file assume (the same trick
// the teacher's map_test.go relies on via its physPages arrays). Tests that
// specifically exercise the uninitialized path (pagetable_test.go) reset and
// restore this state themselves.
func TestMain(m *testing.M) {
	Init(0, func() uintptr { return 0 })
	os.Exit(m.Run())
}

// tableBuffers keeps every buffer newAlignedPageTable hands out reachable:
// a hierarchy links its tables only by physical address, which the garbage
// collector does not follow.
var tableBuffers []*[2]PageTable

// newAlignedPageTable allocates a zeroed PageTable at a 4096-byte-aligned
// address. PageTable is exactly mm.PageSize bytes (512 entries * 8 bytes),
// the invariant its doc comment names; a two-table buffer always has
// enough slack to find an aligned start within it.
func newAlignedPageTable() *PageTable {
	buf := new([2]PageTable)
	tableBuffers = append(tableBuffers, buf)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	aligned := (addr + mm.PageSize - 1) &^ (mm.PageSize - 1)
	t := (*PageTable)(unsafe.Pointer(aligned))
	t.Zero()
	return t
}

var errTestAllocExhausted = &kernel.Error{Module: "vmm_test", Message: "fake allocator exhausted"}

// fakeAllocator hands out real, page-aligned backing memory so that tables
// MapPage installs can be walked into like any other table, the same
// approach the teacher's map_test.go takes with its physPages arrays.
type fakeAllocator struct {
	remaining int
}

func (a *fakeAllocator) Allocate() (mm.PhysFrame[mm.Size4KiB], *kernel.Error) {
	if a.remaining <= 0 {
		return mm.PhysFrame[mm.Size4KiB]{}, errTestAllocExhausted
	}
	a.remaining--
	t := newAlignedPageTable()
	return mm.PhysFrameContainingAddress[mm.Size4KiB](mm.PhysAddr(uintptr(unsafe.Pointer(t)))), nil
}

func TestTranslateAddrUnmapped(t *testing.T) {
	root := newAlignedPageTable()
	if _, ok := TranslateAddr(root, mm.VirtAddr(1234)); ok {
		t.Fatal("expected unmapped address to not translate")
	}
}

func TestMapThenTranslate(t *testing.T) {
	root := newAlignedPageTable()
	alloc := &fakeAllocator{remaining: 3}

	addr := mm.VirtAddr(0xDEADBEEF)
	page := mm.PageContainingAddress(addr)
	entry := NewPageTableEntry(mm.PhysAddr(4096), FlagPresent)

	if err := MapPage(root, page, entry, alloc); err != nil {
		t.Fatalf("MapPage failed: %v", err)
	}

	phys, ok := TranslateAddr(root, addr)
	if !ok {
		t.Fatal("expected mapped address to translate")
	}
	if want := mm.PhysAddr(4096 + uint64(addr.PageOffset())); phys != want {
		t.Errorf("TranslateAddr() = %#x, want %#x", phys, want)
	}
}

func TestMapSamePageTwiceFails(t *testing.T) {
	root := newAlignedPageTable()
	alloc := &fakeAllocator{remaining: 3}

	addr := mm.VirtAddr(0xDEADBEEF)
	page := mm.PageContainingAddress(addr)
	entry := NewPageTableEntry(mm.PhysAddr(4096), FlagPresent)

	if err := MapPage(root, page, entry, alloc); err != nil {
		t.Fatalf("first MapPage failed: %v", err)
	}
	if err := MapPage(root, page, entry, alloc); err != ErrPageAlreadyMapped {
		t.Fatalf("second MapPage = %v, want %v", err, ErrPageAlreadyMapped)
	}
}

func TestMapExhaustsAllocator(t *testing.T) {
	root := newAlignedPageTable()
	alloc := &fakeAllocator{remaining: 1}

	page := mm.PageContainingAddress(mm.VirtAddr(0xDEADBEEF))
	entry := NewPageTableEntry(mm.PhysAddr(4096), FlagPresent)

	if err := MapPage(root, page, entry, alloc); err != ErrFrameAllocation {
		t.Fatalf("MapPage = %v, want %v", err, ErrFrameAllocation)
	}
}

// vgaBufferAddr is the legacy VGA text-mode buffer's physical/virtual
// address; the bootloader identity-maps it before the kernel runs
// (SPEC_FULL.md §6).
const vgaBufferAddr = 0xB8000

// freshlyBootedPageTable reproduces the one fact about boot-time state this
// package's tests depend on: the bootloader has already identity-mapped
// the VGA buffer. Boot-time identity mapping itself is out of scope
// (spec.md §1); this is a test fixture, not a feature.
func freshlyBootedPageTable(t *testing.T) (*PageTable, *fakeAllocator) {
	t.Helper()
	root := newAlignedPageTable()
	alloc := &fakeAllocator{remaining: 8}

	page := mm.PageContainingAddress(mm.VirtAddr(vgaBufferAddr))
	entry := NewPageTableEntry(mm.PhysAddr(vgaBufferAddr), FlagPresent)
	if err := MapPage(root, page, entry, alloc); err != nil {
		t.Fatalf("failed to build VGA identity-map fixture: %v", err)
	}
	return root, alloc
}

func TestIdentityTranslateVGABuffer(t *testing.T) {
	root, _ := freshlyBootedPageTable(t)

	phys, ok := TranslateAddr(root, mm.VirtAddr(vgaBufferAddr))
	if !ok {
		t.Fatal("expected VGA buffer address to already be mapped at boot")
	}
	if want := mm.PhysAddr(vgaBufferAddr); phys != want {
		t.Errorf("TranslateAddr() = %#x, want %#x", phys, want)
	}
}

func TestRemapVGABufferFails(t *testing.T) {
	root, alloc := freshlyBootedPageTable(t)

	page := mm.PageContainingAddress(mm.VirtAddr(vgaBufferAddr))
	entry := NewPageTableEntry(mm.PhysAddr(0), FlagPresent)
	if err := MapPage(root, page, entry, alloc); err != ErrPageAlreadyMapped {
		t.Fatalf("MapPage = %v, want %v", err, ErrPageAlreadyMapped)
	}
}

func TestTranslateHugePage1GiBResidual(t *testing.T) {
	root := newAlignedPageTable()
	mid := newAlignedPageTable()

	const oneGiB = 1 << 30
	addr := mm.VirtAddr(oneGiB + 0x12345)

	idx3 := addr.PageTableIndex(3)
	idx2 := addr.PageTableIndex(2)

	root.SetEntry(idx3, NewPageTableEntry(mm.PhysAddr(uintptr(unsafe.Pointer(mid))), FlagPresent|FlagWritable))
	mid.SetEntry(idx2, NewPageTableEntry(mm.PhysAddr(0), FlagPresent|FlagHugePage))

	phys, ok := TranslateAddr(root, addr)
	if !ok {
		t.Fatal("expected huge-page-backed address to translate")
	}
	if want := mm.PhysAddr(0x12345); phys != want {
		t.Errorf("TranslateAddr() = %#x, want %#x (low 30 bits, not just the 12-bit page offset)", phys, want)
	}
}

func TestTranslateHugePage2MiBResidual(t *testing.T) {
	root := newAlignedPageTable()
	mid1 := newAlignedPageTable()
	mid2 := newAlignedPageTable()

	const twoMiB = 1 << 21
	addr := mm.VirtAddr(twoMiB + 0xABC)

	idx3 := addr.PageTableIndex(3)
	idx2 := addr.PageTableIndex(2)
	idx1 := addr.PageTableIndex(1)

	root.SetEntry(idx3, NewPageTableEntry(mm.PhysAddr(uintptr(unsafe.Pointer(mid1))), FlagPresent|FlagWritable))
	mid1.SetEntry(idx2, NewPageTableEntry(mm.PhysAddr(uintptr(unsafe.Pointer(mid2))), FlagPresent|FlagWritable))
	mid2.SetEntry(idx1, NewPageTableEntry(mm.PhysAddr(0), FlagPresent|FlagHugePage))

	phys, ok := TranslateAddr(root, addr)
	if !ok {
		t.Fatal("expected huge-page-backed address to translate")
	}
	if want := mm.PhysAddr(0xABC); phys != want {
		t.Errorf("TranslateAddr() = %#x, want %#x (low 21 bits, not just the 12-bit page offset)", phys, want)
	}
}
