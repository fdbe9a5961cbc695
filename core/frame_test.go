package core

import (
	"testing"
	"unsafe"

	"github.com/ape-emu/ape/libretro"
)

func TestFrameFromRawCopiesBuffer(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	f := frameFromRaw(uintptr(unsafe.Pointer(&src[0])), 2, 2, 4, libretro.PixelFormatRGB565)
	if f == nil {
		t.Fatal("expected a frame")
	}

	src[0] = 0xFF
	if f.Data[0] != 1 {
		t.Fatal("frame must not alias the source buffer")
	}
	if f.Width != 2 || f.Height != 2 || f.Pitch != 4 {
		t.Fatalf("wrong geometry: %+v", f)
	}
}

func TestFrameFromRawNilData(t *testing.T) {
	if f := frameFromRaw(0, 2, 2, 4, libretro.PixelFormatRGB565); f != nil {
		t.Fatal("duplicate frame must decode to nil")
	}
}

func TestPackedARGB32RGB565(t *testing.T) {
	// One pixel of pure red, one of pure green, with 2 bytes of pitch
	// padding per row.
	f := &Frame{
		Data:   []byte{0x00, 0xF8, 0xAA, 0xAA, 0xE0, 0x07, 0xAA, 0xAA},
		Width:  1,
		Height: 2,
		Pitch:  4,
		Format: libretro.PixelFormatRGB565,
	}

	px := f.PackedARGB32()
	if len(px) != 2 {
		t.Fatalf("expected 2 pixels, got %d", len(px))
	}
	if px[0] != 0xFFFF0000 {
		t.Fatalf("expected red, got %08X", px[0])
	}
	if px[1] != 0xFF00FF00 {
		t.Fatalf("expected green, got %08X", px[1])
	}
}

func TestPackedARGB32XRGB8888(t *testing.T) {
	f := &Frame{
		Data:   []byte{0x44, 0x33, 0x22, 0x00},
		Width:  1,
		Height: 1,
		Pitch:  4,
		Format: libretro.PixelFormatXRGB8888,
	}

	px := f.PackedARGB32()
	if px[0] != 0xFF223344 {
		t.Fatalf("expected FF223344, got %08X", px[0])
	}
}

func TestPackedARGB32_0RGB1555(t *testing.T) {
	// Pure blue: bits 0..4 set.
	f := &Frame{
		Data:   []byte{0x1F, 0x00},
		Width:  1,
		Height: 1,
		Pitch:  2,
		Format: libretro.PixelFormat0RGB1555,
	}

	px := f.PackedARGB32()
	if px[0] != 0xFF0000FF {
		t.Fatalf("expected blue, got %08X", px[0])
	}
}
