package core

import (
	"encoding/binary"
	"unsafe"

	"github.com/ape-emu/ape/libretro"
)

// Frame is one video refresh, copied out of plugin memory so consumers
// can hold it past the callback.
type Frame struct {
	Data   []byte
	Width  int
	Height int
	Pitch  int
	Format libretro.PixelFormat
}

// frameFromRaw copies the refresh buffer. Returns nil for a duplicate
// frame (null data pointer).
func frameFromRaw(data uintptr, width, height, pitch int, format libretro.PixelFormat) *Frame {
	if data == 0 || width <= 0 || height <= 0 || pitch <= 0 {
		return nil
	}

	size := height * pitch
	buf := make([]byte, size)
	copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(data)), size))

	return &Frame{
		Data:   buf,
		Width:  width,
		Height: height,
		Pitch:  pitch,
		Format: format,
	}
}

// PackedARGB32 decodes the frame into packed 0xAARRGGBB pixels, row by
// row so padded pitches are handled.
func (f *Frame) PackedARGB32() []uint32 {
	out := make([]uint32, 0, f.Width*f.Height)
	bpp := f.Format.BytesPerPixel()
	rowBytes := f.Width * bpp

	for y := 0; y < f.Height; y++ {
		row := f.Data[y*f.Pitch : y*f.Pitch+rowBytes]
		for x := 0; x < f.Width; x++ {
			px := row[x*bpp:]
			switch f.Format {
			case libretro.PixelFormatXRGB8888:
				v := binary.LittleEndian.Uint32(px)
				out = append(out, 0xFF000000|v&0x00FFFFFF)
			case libretro.PixelFormatRGB565:
				v := binary.LittleEndian.Uint16(px)
				r := expand5(uint32(v >> 11 & 0x1F))
				g := expand6(uint32(v >> 5 & 0x3F))
				b := expand5(uint32(v & 0x1F))
				out = append(out, 0xFF000000|r<<16|g<<8|b)
			case libretro.PixelFormat0RGB1555:
				v := binary.LittleEndian.Uint16(px)
				r := expand5(uint32(v >> 10 & 0x1F))
				g := expand5(uint32(v >> 5 & 0x1F))
				b := expand5(uint32(v & 0x1F))
				out = append(out, 0xFF000000|r<<16|g<<8|b)
			}
		}
	}
	return out
}

// expand5 scales a 5-bit channel to 8 bits.
func expand5(v uint32) uint32 {
	return v<<3 | v>>2
}

// expand6 scales a 6-bit channel to 8 bits.
func expand6(v uint32) uint32 {
	return v<<2 | v>>4
}
