package core

import (
	"github.com/ape-emu/ape/libretro"
)

// State holds the runtime-visible state of the loaded core: the
// negotiated pixel format, the current address space, and the cached
// content image. It is confined to the owning thread; only PluginRuntime
// operations and environment negotiation mutate it.
type State struct {
	Loaded      bool
	PixelFormat libretro.PixelFormat
	Memory      *AddressSpace
	ROM         []byte
	ROMHash     string
	ROMName     string
}

func newState() *State {
	return &State{
		PixelFormat: libretro.PixelFormat0RGB1555,
		Memory:      emptyAddressSpace(),
	}
}

// reset returns the state to its unloaded defaults.
func (s *State) reset() {
	*s = *newState()
}
