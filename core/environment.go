package core

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/ape-emu/ape/libretro"
)

// onEnvironment is the environment negotiation sub-protocol: the plugin
// asks, during load or run, to set its pixel format or query
// capabilities. Returns 1 for handled, 0 for rejected or unknown, as the
// ABI's bool.
func onEnvironment(cmd uint32, data uintptr) uintptr {
	switch cmd {
	case libretro.EnvSetPixelFormat:
		if data == 0 {
			return 0
		}
		format := libretro.PixelFormat(*(*uint32)(unsafe.Pointer(data)))
		if !format.Valid() {
			Logger().Warn("core requested unknown pixel format",
				zap.Uint32("format", uint32(format)))
			return 0
		}
		if !bridge.callbacks.SupportsPixelFormat(format) {
			Logger().Warn("core requested unsupported pixel format",
				zap.String("format", format.String()))
			return 0
		}
		// Update immediately so the next video refresh decodes correctly.
		bridge.state.PixelFormat = format
		return 1

	case libretro.EnvGetCanDupe:
		if data != 0 {
			*(*bool)(unsafe.Pointer(data)) = bridge.callbacks.CanDupeFrames()
		}
		return 1

	case libretro.EnvSetMemoryMaps:
		m := newAddressSpaceFromRaw((*libretro.MemoryMap)(unsafe.Pointer(data)))
		bridge.state.Memory = m
		Logger().Info("core supplied memory map",
			zap.Int("descriptors", m.Len()))
		return 1

	default:
		Logger().Debug("unhandled environment command",
			zap.Uint32("command", cmd))
		return 0
	}
}
