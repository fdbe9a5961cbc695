package core

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unsafe"

	"go.uber.org/zap"

	"github.com/ape-emu/ape/errors"
	"github.com/ape-emu/ape/libretro"
)

// Memory domain names accepted by ReadDomain and WriteDomain.
const (
	DomainROM       = "ROM"
	DomainSystemBus = "System Bus"
)

// Config names the plugin library and the content image to load.
type Config struct {
	CorePath string
	ROMPath  string
}

// Core is a loaded plugin with content. It only exists inside the body
// passed to Load; every method must be called from the thread that
// called Load.
type Core struct {
	api   *api
	state *State
}

// SystemInfo is the plugin's self-description.
type SystemInfo struct {
	LibraryName     string
	LibraryVersion  string
	ValidExtensions string
	NeedFullpath    bool
	BlockExtract    bool
}

// AVInfo is the plugin's video geometry and timing.
type AVInfo struct {
	BaseWidth   int
	BaseHeight  int
	MaxWidth    int
	MaxHeight   int
	AspectRatio float32
	FPS         float64
	SampleRate  float64
}

// coreLoaded guards against nesting: the trampolines dispatch through a
// single package-level bridge, so only one core may be live at a time.
var coreLoaded bool

// Load opens the plugin library, loads the content image and runs body
// with the live Core. Teardown is symmetric and runs even when body
// panics: content is unloaded, the plugin deinitialized, the callback
// bridge dropped, the address space invalidated and the library closed.
func Load(cfg Config, callbacks Callbacks, body func(*Core) error) error {
	if coreLoaded {
		return errors.InvalidInput(errors.PhaseLoad, "a core is already loaded")
	}
	if callbacks == nil {
		return errors.InvalidInput(errors.PhaseLoad, "callbacks must not be nil")
	}

	a, err := loadAPI(cfg.CorePath)
	if err != nil {
		return err
	}

	if got := a.apiVersion(); got != libretro.APIVersion {
		_ = a.close()
		return errors.VersionMismatch(got, libretro.APIVersion)
	}

	st := newState()
	registerBridge(callbacks, st)
	coreLoaded = true

	a.setEnvironment(environmentTrampoline)
	a.setVideoRefresh(videoRefreshTrampoline)
	a.setAudioSample(audioSampleTrampoline)
	a.setAudioSampleBatch(audioSampleBatchTrampoline)
	a.setInputPoll(inputPollTrampoline)
	a.setInputState(inputStateTrampoline)

	a.init()

	gameLoaded := false
	defer func() {
		if gameLoaded {
			a.unloadGame()
		}
		a.deinit()
		st.Memory.invalidate()
		st.reset()
		dropBridge()
		coreLoaded = false
		if cerr := a.close(); cerr != nil {
			Logger().Warn("failed to close core library", zap.Error(cerr))
		}
	}()

	rom, err := os.ReadFile(cfg.ROMPath)
	if err != nil {
		return errors.ContentLoad("failed to read content file", err)
	}

	pathBytes := append([]byte(cfg.ROMPath), 0)
	info := libretro.GameInfo{
		Path: uintptr(unsafe.Pointer(&pathBytes[0])),
		Size: uintptr(len(rom)),
	}
	if len(rom) > 0 {
		info.Data = uintptr(unsafe.Pointer(&rom[0]))
	}

	ok := a.loadGame(unsafe.Pointer(&info))
	runtime.KeepAlive(pathBytes)
	runtime.KeepAlive(rom)
	if !ok {
		return errors.ContentLoad("core rejected the content", nil)
	}
	gameLoaded = true

	st.Loaded = true
	st.ROM = rom
	st.ROMHash = romHash(rom)
	st.ROMName = romName(cfg.ROMPath)

	Logger().Info("core loaded",
		zap.String("core", cfg.CorePath),
		zap.String("rom", st.ROMName),
		zap.String("hash", st.ROMHash))

	return body(&Core{api: a, state: st})
}

func romName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func romHash(rom []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(rom))
}

// Run advances emulation by one frame, dispatching video, audio and
// input callbacks.
func (c *Core) Run() {
	c.api.run()
}

// Reset performs the platform's soft reset.
func (c *Core) Reset() {
	c.api.reset()
}

// SerializeState snapshots the full emulation state.
func (c *Core) SerializeState() ([]byte, error) {
	size := c.api.serializeSize()
	if size == 0 {
		return nil, errors.Serialization("core does not support state serialization")
	}
	buf := make([]byte, size)
	if !c.api.serialize(unsafe.Pointer(&buf[0]), size) {
		return nil, errors.Serialization("core failed to serialize state")
	}
	return buf, nil
}

// RestoreState loads a snapshot previously produced by SerializeState.
func (c *Core) RestoreState(data []byte) error {
	if len(data) == 0 {
		return errors.Restore("state payload is empty")
	}
	if !c.api.unserialize(unsafe.Pointer(&data[0]), uintptr(len(data))) {
		return errors.Restore("core rejected the state payload")
	}
	return nil
}

// ReadDomain copies up to size bytes from a memory domain starting at
// addr. Reads past mapped memory truncate; the shortfall is logged, not
// an error.
func (c *Core) ReadDomain(domain string, addr uint, size int) ([]byte, error) {
	switch domain {
	case DomainROM:
		rom := c.state.ROM
		if addr >= uint(len(rom)) {
			return nil, nil
		}
		end := addr + uint(size)
		if end > uint(len(rom)) {
			end = uint(len(rom))
		}
		out := make([]byte, end-addr)
		copy(out, rom[addr:end])
		return out, nil

	case DomainSystemBus:
		out := make([]byte, 0, size)
		for len(out) < size {
			view, err := c.state.Memory.Slice(addr, uint(size-len(out)))
			if err != nil {
				return nil, err
			}
			if len(view) == 0 {
				Logger().Warn("read truncated at unmapped address",
					zap.Uint64("address", uint64(addr)),
					zap.Int("requested", size),
					zap.Int("read", len(out)))
				break
			}
			out = append(out, view...)
			addr += uint(len(view))
		}
		return out, nil

	default:
		return nil, errors.UnknownDomain(domain)
	}
}

// WriteDomain copies data into a memory domain starting at addr and
// returns the number of bytes written. Writes past mapped memory
// truncate; the shortfall is logged, not an error.
func (c *Core) WriteDomain(domain string, addr uint, data []byte) (int, error) {
	switch domain {
	case DomainROM:
		return 0, errors.InvalidInput(errors.PhaseMemory, "domain \"ROM\" is read-only")

	case DomainSystemBus:
		written := 0
		for written < len(data) {
			view, err := c.state.Memory.Slice(addr, uint(len(data)-written))
			if err != nil {
				return written, err
			}
			if len(view) == 0 {
				Logger().Warn("write truncated at unmapped address",
					zap.Uint64("address", uint64(addr)),
					zap.Int("requested", len(data)),
					zap.Int("written", written))
				break
			}
			copy(view, data[written:written+len(view)])
			written += len(view)
			addr += uint(len(view))
		}
		return written, nil

	default:
		return 0, errors.UnknownDomain(domain)
	}
}

// SystemInfo returns the plugin's self-description.
func (c *Core) SystemInfo() SystemInfo {
	var raw libretro.SystemInfo
	c.api.getSystemInfo(unsafe.Pointer(&raw))
	return SystemInfo{
		LibraryName:     libretro.GoString(raw.LibraryName),
		LibraryVersion:  libretro.GoString(raw.LibraryVersion),
		ValidExtensions: libretro.GoString(raw.ValidExtensions),
		NeedFullpath:    raw.NeedFullpath,
		BlockExtract:    raw.BlockExtract,
	}
}

// AVInfo returns the plugin's geometry and timing for the loaded content.
func (c *Core) AVInfo() AVInfo {
	var raw libretro.SystemAVInfo
	c.api.getSystemAVInfo(unsafe.Pointer(&raw))
	return AVInfo{
		BaseWidth:   int(raw.Geometry.BaseWidth),
		BaseHeight:  int(raw.Geometry.BaseHeight),
		MaxWidth:    int(raw.Geometry.MaxWidth),
		MaxHeight:   int(raw.Geometry.MaxHeight),
		AspectRatio: raw.Geometry.AspectRatio,
		FPS:         raw.Timing.FPS,
		SampleRate:  raw.Timing.SampleRate,
	}
}

// SaveRAM copies the plugin's battery-backed save region, or nil when
// the content has none.
func (c *Core) SaveRAM() []byte {
	data := c.api.getMemoryData(libretro.MemorySaveRAM)
	size := c.api.getMemorySize(libretro.MemorySaveRAM)
	if data == 0 || size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(data)), size))
	return out
}

// RestoreSaveRAM copies a previously captured save region back into the
// plugin. Payloads of the wrong size copy the shorter of the two
// lengths.
func (c *Core) RestoreSaveRAM(data []byte) error {
	ptr := c.api.getMemoryData(libretro.MemorySaveRAM)
	size := c.api.getMemorySize(libretro.MemorySaveRAM)
	if ptr == 0 || size == 0 {
		return errors.Restore("content has no save region")
	}
	if uintptr(len(data)) != size {
		Logger().Warn("save payload size does not match region",
			zap.Int("payload", len(data)),
			zap.Uint64("region", uint64(size)))
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size), data)
	return nil
}

// ROM returns the cached content image.
func (c *Core) ROM() []byte {
	return c.state.ROM
}

// ROMHash returns the SHA-1 of the content image as upper-case hex.
func (c *Core) ROMHash() string {
	return c.state.ROMHash
}

// ROMName returns the content file name without its extension.
func (c *Core) ROMName() string {
	return c.state.ROMName
}

// Memory returns the plugin's address space.
func (c *Core) Memory() *AddressSpace {
	return c.state.Memory
}

// PixelFormat returns the currently negotiated pixel format.
func (c *Core) PixelFormat() libretro.PixelFormat {
	return c.state.PixelFormat
}

// SystemID maps the plugin's library name onto the emulated platform
// identifier used by the network status protocol, falling back to the
// raw library name for platforms without a known identifier.
func (c *Core) SystemID() string {
	return systemID(c.SystemInfo().LibraryName)
}

func systemID(libraryName string) string {
	if id := systemIDFromLibraryName(libraryName); id != "" {
		return id
	}
	return libraryName
}

func systemIDFromLibraryName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "gambatte"), strings.Contains(lower, "sameboy"):
		return "game_boy"
	default:
		return ""
	}
}
