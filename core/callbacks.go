package core

import (
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/ape-emu/ape/libretro"
)

// Callbacks receives plugin dispatches during Load and Run. All methods
// are invoked synchronously on the owning thread, from inside the
// plugin's own call frames.
type Callbacks interface {
	// VideoFrame delivers the decoded frame, or nil for a duplicate frame.
	VideoFrame(frame *Frame)
	AudioSample(left, right int16)
	AudioSamples(samples []int16)
	InputPoll()
	InputState(port, device, index, id uint32) int16
	// SupportsPixelFormat answers the plugin's pixel format negotiation.
	// Returning false keeps the previously negotiated format.
	SupportsPixelFormat(format libretro.PixelFormat) bool
	CanDupeFrames() bool
}

// bridge is the slot the C trampolines dispatch through. The plugin ABI
// takes bare function pointers with no user-data parameter, so the
// handler has to live in package state. It is only ever read from inside
// a Load/Run call on the owning thread; that confinement is a caller
// discipline, not something the type system enforces.
var bridge = struct {
	callbacks Callbacks
	state     *State
}{
	callbacks: stubCallbacks{},
	state:     newState(),
}

func registerBridge(cb Callbacks, st *State) {
	bridge.callbacks = cb
	bridge.state = st
}

// dropBridge installs the warning stub so a core that calls back after
// unload cannot dispatch into freed state.
func dropBridge() {
	bridge.callbacks = stubCallbacks{}
	bridge.state = newState()
}

// stubCallbacks is the defensive default handler.
type stubCallbacks struct{}

func (stubCallbacks) VideoFrame(*Frame) {
	Logger().Warn("video refresh callback is stubbed")
}

func (stubCallbacks) AudioSample(_, _ int16) {
	Logger().Warn("audio sample callback is stubbed")
}

func (stubCallbacks) AudioSamples([]int16) {
	Logger().Warn("audio sample batch callback is stubbed")
}

func (stubCallbacks) InputPoll() {
	Logger().Warn("input poll callback is stubbed")
}

func (stubCallbacks) InputState(_, _, _, _ uint32) int16 {
	Logger().Warn("input state callback is stubbed")
	return 0
}

func (stubCallbacks) SupportsPixelFormat(libretro.PixelFormat) bool {
	Logger().Warn("pixel format callback is stubbed")
	return false
}

func (stubCallbacks) CanDupeFrames() bool {
	Logger().Warn("can-dupe callback is stubbed")
	return false
}

// The trampolines handed to retro_set_* are fixed C-callable functions
// created once per process; purego caps the number of callbacks, so they
// must never be created per load.
var (
	environmentTrampoline      = purego.NewCallback(onEnvironment)
	videoRefreshTrampoline     = purego.NewCallback(onVideoRefresh)
	audioSampleTrampoline      = purego.NewCallback(onAudioSample)
	audioSampleBatchTrampoline = purego.NewCallback(onAudioSampleBatch)
	inputPollTrampoline        = purego.NewCallback(onInputPoll)
	inputStateTrampoline       = purego.NewCallback(onInputState)
)

func onVideoRefresh(data uintptr, width, height uint32, pitch uintptr) {
	frame := frameFromRaw(data, int(width), int(height), int(pitch), bridge.state.PixelFormat)
	bridge.callbacks.VideoFrame(frame)
}

func onAudioSample(left, right int16) {
	bridge.callbacks.AudioSample(left, right)
}

func onAudioSampleBatch(data uintptr, frames uintptr) uintptr {
	const numChannels = 2
	if data != 0 && frames > 0 {
		samples := unsafe.Slice((*int16)(unsafe.Pointer(data)), int(frames)*numChannels)
		bridge.callbacks.AudioSamples(samples)
	}
	return frames
}

func onInputPoll() {
	bridge.callbacks.InputPoll()
}

func onInputState(port, device, index, id uint32) int16 {
	return bridge.callbacks.InputState(port, device, index, id)
}
