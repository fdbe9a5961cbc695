package core

import (
	stderrors "errors"
	"testing"
	"unsafe"

	"github.com/ape-emu/ape/errors"
)

// spaceOver builds an address space with one descriptor per backing
// slice, mapped back to back starting at the given logical addresses.
func spaceOver(t *testing.T, backings [][]byte, starts []uint) *AddressSpace {
	t.Helper()
	m := emptyAddressSpace()
	for i, b := range backings {
		m.regions = append(m.regions, region{
			base: uintptr(unsafe.Pointer(&b[0])),
			size: uint(len(b)),
		})
		m.descriptors = append(m.descriptors, Descriptor{
			Start:  starts[i],
			Len:    uint(len(b)),
			region: i,
		})
	}
	return m
}

func TestSliceTranslatesWithinDescriptor(t *testing.T) {
	backing := []byte{10, 11, 12, 13, 14, 15, 16, 17}
	m := spaceOver(t, [][]byte{backing}, []uint{0x100})

	view, err := m.Slice(0x103, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(view))
	}
	if view[0] != 13 || view[3] != 16 {
		t.Fatalf("wrong bytes: %v", view)
	}

	// The view is writable and aliases the backing memory.
	view[0] = 99
	if backing[3] != 99 {
		t.Fatal("write through view did not reach backing memory")
	}
}

func TestSliceTruncatesAtDescriptorEnd(t *testing.T) {
	backing := make([]byte, 8)
	m := spaceOver(t, [][]byte{backing}, []uint{0x100})

	view, err := m.Slice(0x106, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view) != 2 {
		t.Fatalf("expected truncation to 2 bytes, got %d", len(view))
	}
}

func TestSliceNoMatchReturnsNil(t *testing.T) {
	backing := make([]byte, 8)
	m := spaceOver(t, [][]byte{backing}, []uint{0x100})

	view, err := m.Slice(0x200, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view != nil {
		t.Fatalf("expected nil view for unmapped address, got %v", view)
	}
}

func TestSliceFirstMatchWins(t *testing.T) {
	first := []byte{1, 1, 1, 1}
	second := []byte{2, 2, 2, 2}
	// Both descriptors cover 0x100; the first one in declaration order
	// must win.
	m := spaceOver(t, [][]byte{first, second}, []uint{0x100, 0x100})

	view, err := m.Slice(0x100, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view[0] != 1 {
		t.Fatalf("expected first descriptor to win, got byte %d", view[0])
	}
}

func TestSliceSelectMaskNeverMatches(t *testing.T) {
	backing := make([]byte, 8)
	m := spaceOver(t, [][]byte{backing}, []uint{0x100})
	m.descriptors[0].Select = 0xFF00

	view, err := m.Slice(0x100, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view != nil {
		t.Fatal("descriptor with a select mask must not match")
	}
}

func TestSliceZeroLengthReturnsNil(t *testing.T) {
	backing := make([]byte, 8)
	m := spaceOver(t, [][]byte{backing}, []uint{0x100})

	view, err := m.Slice(0x100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view != nil {
		t.Fatal("expected nil view for zero-length request")
	}
}

func TestInvalidatedSpaceFailsCleanly(t *testing.T) {
	backing := make([]byte, 8)
	m := spaceOver(t, [][]byte{backing}, []uint{0x100})

	m.invalidate()

	_, err := m.Slice(0x100, 4)
	if err == nil {
		t.Fatal("expected error from invalidated address space")
	}
	if !stderrors.Is(err, errors.NotLoaded("")) {
		t.Fatalf("expected not_loaded error, got %v", err)
	}
}

func TestEmptyAddressSpace(t *testing.T) {
	m := emptyAddressSpace()
	if m.Len() != 0 {
		t.Fatalf("expected no descriptors, got %d", m.Len())
	}
	view, err := m.Slice(0, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view != nil {
		t.Fatal("expected nil view from empty space")
	}
}
