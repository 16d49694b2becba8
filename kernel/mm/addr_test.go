package mm

import "testing"

func TestVirtAddrIndexExtraction(t *testing.T) {
	addr := VirtAddr(0xE677_BF54_D244)

	if got, want := addr.PageOffset(), PageOffset(580); got != want {
		t.Errorf("PageOffset() = %d, want %d", got, want)
	}

	specs := []struct {
		level uint
		want  PageTableIndex
	}{
		{0, 333},
		{1, 506},
		{2, 478},
		{3, 460},
	}
	for _, spec := range specs {
		if got := addr.PageTableIndex(spec.level); got != spec.want {
			t.Errorf("PageTableIndex(%d) = %d, want %d", spec.level, got, spec.want)
		}
	}
}

func TestVirtAddrAlignDown(t *testing.T) {
	addr := VirtAddr(0xE677_BF54_D244)
	if got, want := addr.AlignDown(), VirtAddr(0xE677_BF54_D000); got != want {
		t.Errorf("AlignDown() = %#x, want %#x", got, want)
	}
	if addr.AlignDown().PageOffset() != 0 {
		t.Error("expected AlignDown().PageOffset() to be zero")
	}
}

func TestPageOffsetTruncate(t *testing.T) {
	for x := uint64(0); x < 3*PageSize; x += 137 {
		if got, want := NewPageOffsetTruncate(x), PageOffset(x%PageSize); got != want {
			t.Errorf("NewPageOffsetTruncate(%d) = %d, want %d", x, got, want)
		}
	}
}

func TestPageTableIndexTruncate(t *testing.T) {
	for x := uint64(0); x < 3*entriesPerLevel; x += 17 {
		if got, want := NewPageTableIndexTruncate(x), PageTableIndex(x%entriesPerLevel); got != want {
			t.Errorf("NewPageTableIndexTruncate(%d) = %d, want %d", x, got, want)
		}
	}
}
