// Package ape hosts libretro emulator plugins and exposes their memory
// to external tools over the network.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct
// responsibilities:
//
//	ape/
//	├── libretro/  C ABI surface: entry point names, struct mirrors, constants
//	├── core/      Plugin loading, frame stepping, memory domains, callbacks
//	├── hook/      Cross-thread command channel with rendezvous semantics
//	├── remote/    JSON/TCP and plaintext UDP protocol servers
//	├── errors/    Structured error types for debugging
//	└── cmd/ape/   Host program with a headless loop and an inspector TUI
//
// # Quick Start
//
// Load a core and step it, with command channel access from other
// goroutines:
//
//	host := hook.New[*core.Core]()
//
//	err := core.Load(cfg, callbacks, func(c *core.Core) error {
//	    defer host.Close()
//	    for running {
//	        c.Run()
//	        host.Run(c)
//	    }
//	    return nil
//	})
//
// A core is only usable inside the Load body, and only on the calling
// thread. Other goroutines submit closures through hook.Handle and block
// until the owning thread executes them.
package ape
