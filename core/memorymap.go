package core

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/ape-emu/ape/errors"
	"github.com/ape-emu/ape/libretro"
)

// Descriptor is one mapping rule from a contiguous logical address range
// to a region of plugin-owned memory. Descriptors do not hold pointers
// themselves; they reference the owning AddressSpace's region table so
// stale views fail cleanly after unload.
type Descriptor struct {
	Flags      uint64
	Offset     uint
	Start      uint
	Select     uint
	Disconnect uint
	Len        uint
	Space      string

	region int
}

// End returns the first logical address past the descriptor's range.
func (d *Descriptor) End() uint {
	return d.Start + d.Len
}

func (d *Descriptor) contains(addr uint) bool {
	// Descriptors with a select mask are present but currently
	// unsupported; they never match.
	if d.Select != 0 {
		return false
	}
	return d.Start <= addr && addr < d.End()
}

// region is a live view into plugin-owned memory, detached on unload.
type region struct {
	base uintptr
	size uint
}

// AddressSpace is the ordered descriptor list the plugin exposed with its
// last SET_MEMORY_MAPS call. Built once per content load, immutable for
// the life of the runtime, invalidated when the runtime unloads.
type AddressSpace struct {
	descriptors []Descriptor
	regions     []region
	live        bool
}

func emptyAddressSpace() *AddressSpace {
	return &AddressSpace{live: true}
}

// newAddressSpaceFromRaw copies the plugin's descriptor table. The raw
// pointers stay owned by the plugin; they are only valid while it is
// loaded.
func newAddressSpaceFromRaw(raw *libretro.MemoryMap) *AddressSpace {
	if raw == nil || raw.Descriptors == 0 || raw.NumDescriptors == 0 {
		return emptyAddressSpace()
	}

	rawDescs := unsafe.Slice(
		(*libretro.MemoryDescriptor)(unsafe.Pointer(raw.Descriptors)),
		int(raw.NumDescriptors),
	)

	m := emptyAddressSpace()
	for _, rd := range rawDescs {
		m.regions = append(m.regions, region{
			base: rd.Ptr,
			size: uint(rd.Offset) + uint(rd.Len),
		})
		m.descriptors = append(m.descriptors, Descriptor{
			Flags:      rd.Flags,
			Offset:     uint(rd.Offset),
			Start:      uint(rd.Start),
			Select:     uint(rd.Select),
			Disconnect: uint(rd.Disconnect),
			Len:        uint(rd.Len),
			Space:      libretro.GoString(rd.AddrSpace),
			region:     len(m.regions) - 1,
		})
	}
	return m
}

// Len returns the number of descriptors.
func (m *AddressSpace) Len() int {
	return len(m.descriptors)
}

// Slice returns a mutable view of the plugin memory backing addr, at most
// maxLen bytes long. A nil slice with a nil error means no descriptor
// matched. An error means the owning runtime has unloaded and the view
// would dangle.
func (m *AddressSpace) Slice(addr, maxLen uint) ([]byte, error) {
	if !m.live {
		return nil, errors.NotLoaded("address space")
	}

	d := m.find(addr)
	if d == nil || maxLen == 0 {
		return nil, nil
	}

	reg := m.regions[d.region]
	if reg.base == 0 {
		return nil, errors.NotLoaded("address space")
	}

	off := addr - d.Start
	n := d.Len - off
	if maxLen < n {
		n = maxLen
	}
	if d.Offset+off+n > reg.size {
		Logger().Warn("descriptor exceeds its backing region",
			zap.String("space", d.Space),
			zap.Uint64("start", uint64(d.Start)))
		return nil, nil
	}

	ptr := reg.base + uintptr(d.Offset+off)
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n), nil
}

// find returns the first descriptor whose range contains addr. First
// match wins; descriptor counts are tens, not thousands, so a scan beats
// any index.
func (m *AddressSpace) find(addr uint) *Descriptor {
	for i := range m.descriptors {
		if m.descriptors[i].contains(addr) {
			return &m.descriptors[i]
		}
	}
	return nil
}

// invalidate detaches every region so held references cannot reach freed
// plugin memory. Called when the owning runtime unloads.
func (m *AddressSpace) invalidate() {
	m.live = false
	for i := range m.regions {
		m.regions[i] = region{}
	}
}
