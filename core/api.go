package core

import (
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/ape-emu/ape/errors"
	"github.com/ape-emu/ape/libretro"
)

// api holds the resolved plugin entry points for one loaded library.
type api struct {
	handle uintptr

	apiVersion func() uint32
	init       func()
	deinit     func()

	setEnvironment      func(uintptr)
	setVideoRefresh     func(uintptr)
	setAudioSample      func(uintptr)
	setAudioSampleBatch func(uintptr)
	setInputPoll        func(uintptr)
	setInputState       func(uintptr)

	getSystemInfo   func(unsafe.Pointer)
	getSystemAVInfo func(unsafe.Pointer)

	loadGame   func(unsafe.Pointer) bool
	unloadGame func()
	run        func()
	reset      func()

	serializeSize func() uintptr
	serialize     func(unsafe.Pointer, uintptr) bool
	unserialize   func(unsafe.Pointer, uintptr) bool

	getMemoryData func(uint32) uintptr
	getMemorySize func(uint32) uintptr
}

// loadAPI opens the shared library and resolves every entry point,
// failing fast on the first missing symbol.
func loadAPI(path string) (*api, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, errors.Load("open plugin library", err)
	}

	a := &api{handle: handle}
	for _, s := range []struct {
		name string
		fptr any
	}{
		{libretro.SymAPIVersion, &a.apiVersion},
		{libretro.SymInit, &a.init},
		{libretro.SymDeinit, &a.deinit},
		{libretro.SymSetEnvironment, &a.setEnvironment},
		{libretro.SymSetVideoRefresh, &a.setVideoRefresh},
		{libretro.SymSetAudioSample, &a.setAudioSample},
		{libretro.SymSetAudioSampleBatch, &a.setAudioSampleBatch},
		{libretro.SymSetInputPoll, &a.setInputPoll},
		{libretro.SymSetInputState, &a.setInputState},
		{libretro.SymGetSystemInfo, &a.getSystemInfo},
		{libretro.SymGetSystemAVInfo, &a.getSystemAVInfo},
		{libretro.SymLoadGame, &a.loadGame},
		{libretro.SymUnloadGame, &a.unloadGame},
		{libretro.SymRun, &a.run},
		{libretro.SymReset, &a.reset},
		{libretro.SymSerializeSize, &a.serializeSize},
		{libretro.SymSerialize, &a.serialize},
		{libretro.SymUnserialize, &a.unserialize},
		{libretro.SymGetMemoryData, &a.getMemoryData},
		{libretro.SymGetMemorySize, &a.getMemorySize},
	} {
		if err := a.registerSym(s.name, s.fptr); err != nil {
			_ = purego.Dlclose(handle)
			return nil, err
		}
	}
	return a, nil
}

func (a *api) registerSym(name string, fptr any) error {
	if _, err := purego.Dlsym(a.handle, name); err != nil {
		return errors.SymbolMissing(name, err)
	}
	purego.RegisterLibFunc(fptr, a.handle, name)
	return nil
}

func (a *api) close() error {
	if a.handle == 0 {
		return nil
	}
	err := purego.Dlclose(a.handle)
	a.handle = 0
	if err != nil {
		return errors.Load("close plugin library", err)
	}
	return nil
}
