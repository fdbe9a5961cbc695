// Package libretro contains pure-Go representations of the libretro C ABI:
// entry-point names, environment command numbers, and the C structs that
// cross the FFI boundary. They are safe to use with purego.RegisterLibFunc
// and must exactly match the field layout in libretro.h.
package libretro

// APIVersion is the libretro ABI version this runtime was built against.
// retro_api_version must report exactly this value.
const APIVersion uint32 = 1

// PixelFormat identifies the layout of the video refresh buffer.
type PixelFormat uint32

const (
	// PixelFormat0RGB1555 is the libretro default before negotiation.
	PixelFormat0RGB1555 PixelFormat = 0
	PixelFormatXRGB8888 PixelFormat = 1
	PixelFormatRGB565   PixelFormat = 2
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormat0RGB1555:
		return "0RGB1555"
	case PixelFormatXRGB8888:
		return "XRGB8888"
	case PixelFormatRGB565:
		return "RGB565"
	}
	return "unknown"
}

// Valid reports whether f is one of the three defined formats.
func (f PixelFormat) Valid() bool {
	return f <= PixelFormatRGB565
}

// BytesPerPixel returns the pixel stride for f.
func (f PixelFormat) BytesPerPixel() int {
	if f == PixelFormatXRGB8888 {
		return 4
	}
	return 2
}

// Environment command numbers passed to the environment callback.
const (
	EnvExperimental uint32 = 0x10000

	EnvGetCanDupe     uint32 = 3
	EnvSetPixelFormat uint32 = 10
	EnvSetVariables   uint32 = 16
	EnvGetVariable    uint32 = 15
	EnvSetMemoryMaps  uint32 = 36 | EnvExperimental
)

// Memory region IDs for retro_get_memory_data/retro_get_memory_size.
const (
	MemorySaveRAM   uint32 = 0
	MemorySystemRAM uint32 = 2
)

// Region codes returned by retro_get_region.
const (
	RegionNTSC uint32 = 0
	RegionPAL  uint32 = 1
)

// Joypad device and button IDs for the input state callback.
const (
	DeviceJoypad uint32 = 1

	DeviceIDJoypadB      uint32 = 0
	DeviceIDJoypadY      uint32 = 1
	DeviceIDJoypadSelect uint32 = 2
	DeviceIDJoypadStart  uint32 = 3
	DeviceIDJoypadUp     uint32 = 4
	DeviceIDJoypadDown   uint32 = 5
	DeviceIDJoypadLeft   uint32 = 6
	DeviceIDJoypadRight  uint32 = 7
	DeviceIDJoypadA      uint32 = 8
	DeviceIDJoypadX      uint32 = 9
	DeviceIDJoypadL      uint32 = 10
	DeviceIDJoypadR      uint32 = 11
	DeviceIDJoypadL2     uint32 = 12
	DeviceIDJoypadR2     uint32 = 13
	DeviceIDJoypadL3     uint32 = 14
	DeviceIDJoypadR3     uint32 = 15
)

// GameInfo mirrors struct retro_game_info. The caller MUST keep the
// backing ROM slice alive until after retro_load_game returns.
type GameInfo struct {
	Path uintptr // const char*, may be 0 when data is provided
	Data uintptr // const void*
	Size uintptr
	Meta uintptr // const char*
}

// SystemInfo mirrors struct retro_system_info. String fields are
// plugin-owned C pointers valid for the life of the loaded library.
type SystemInfo struct {
	LibraryName     uintptr // const char*
	LibraryVersion  uintptr // const char*
	ValidExtensions uintptr // const char*
	NeedFullpath    bool
	BlockExtract    bool
}

// GameGeometry mirrors struct retro_game_geometry.
type GameGeometry struct {
	BaseWidth   uint32
	BaseHeight  uint32
	MaxWidth    uint32
	MaxHeight   uint32
	AspectRatio float32
}

// SystemTiming mirrors struct retro_system_timing.
type SystemTiming struct {
	FPS        float64
	SampleRate float64
}

// SystemAVInfo mirrors struct retro_system_av_info.
type SystemAVInfo struct {
	Geometry GameGeometry
	_        uint32 // padding: struct retro_system_timing is 8-byte aligned
	Timing   SystemTiming
}

// MemoryDescriptor mirrors struct retro_memory_descriptor: one mapping
// rule from a logical address range to a plugin-owned buffer region.
type MemoryDescriptor struct {
	Flags      uint64
	Ptr        uintptr // void*, plugin-owned
	Offset     uintptr
	Start      uintptr
	Select     uintptr
	Disconnect uintptr
	Len        uintptr
	AddrSpace  uintptr // const char*
}

// MemoryMap mirrors struct retro_memory_map, passed with SET_MEMORY_MAPS.
type MemoryMap struct {
	Descriptors    uintptr // const struct retro_memory_descriptor*
	NumDescriptors uint32
}

// Variable mirrors struct retro_variable used by SET_VARIABLES/GET_VARIABLE.
type Variable struct {
	Key   uintptr // const char*
	Value uintptr // const char*
}

// Entry-point symbol names resolved from the core library.
const (
	SymSetEnvironment          = "retro_set_environment"
	SymSetVideoRefresh         = "retro_set_video_refresh"
	SymSetAudioSample          = "retro_set_audio_sample"
	SymSetAudioSampleBatch     = "retro_set_audio_sample_batch"
	SymSetInputPoll            = "retro_set_input_poll"
	SymSetInputState           = "retro_set_input_state"
	SymInit                    = "retro_init"
	SymDeinit                  = "retro_deinit"
	SymAPIVersion              = "retro_api_version"
	SymGetSystemInfo           = "retro_get_system_info"
	SymGetSystemAVInfo         = "retro_get_system_av_info"
	SymSetControllerPortDevice = "retro_set_controller_port_device"
	SymReset                   = "retro_reset"
	SymRun                     = "retro_run"
	SymSerializeSize           = "retro_serialize_size"
	SymSerialize               = "retro_serialize"
	SymUnserialize             = "retro_unserialize"
	SymCheatReset              = "retro_cheat_reset"
	SymCheatSet                = "retro_cheat_set"
	SymLoadGame                = "retro_load_game"
	SymLoadGameSpecial         = "retro_load_game_special"
	SymUnloadGame              = "retro_unload_game"
	SymGetRegion               = "retro_get_region"
	SymGetMemoryData           = "retro_get_memory_data"
	SymGetMemorySize           = "retro_get_memory_size"
)
