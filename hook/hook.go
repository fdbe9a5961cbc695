// Package hook provides the cross-thread command channel that serializes
// access to a thread-confined resource, typically the loaded core.
//
// A Host lives on the owning thread and drains commands between frame
// steps; Handles are cheap copies handed to any number of other
// goroutines. Handle.Run blocks the submitter until the closure has
// executed on the owning thread (rendezvous semantics, capacity zero),
// so callers experience backpressure instead of an unbounded queue.
package hook

import (
	"sync"

	"github.com/ape-emu/ape/errors"
)

// drainBatch bounds how many pending commands one Host.Run call executes,
// so a burst of clients cannot starve the owning thread's own work.
const drainBatch = 16

type command[C any] struct {
	fn   func(C)
	done chan struct{}
}

// Host owns the receive end of the channel. Not safe for concurrent use;
// it belongs to the single thread that owns the resource.
type Host[C any] struct {
	cmds     chan command[C]
	quit     chan struct{}
	quitOnce sync.Once
}

// New creates a Host with a zero-capacity command channel.
func New[C any]() *Host[C] {
	return &Host[C]{
		cmds: make(chan command[C]),
		quit: make(chan struct{}),
	}
}

// Handle returns a submission handle. Handles may be copied freely and
// used from any goroutine.
func (h *Host[C]) Handle() Handle[C] {
	return Handle[C]{cmds: h.cmds, quit: h.quit}
}

// Run executes pending commands against c, at most drainBatch of them,
// without blocking. Call it once per iteration of the owning loop.
func (h *Host[C]) Run(c C) {
	for i := 0; i < drainBatch; i++ {
		select {
		case cmd := <-h.cmds:
			cmd.fn(c)
			close(cmd.done)
		default:
			return
		}
	}
}

// Close releases every blocked and future submitter with a channel-closed
// error. Safe to call more than once, since shutdown paths tend to close
// both deferred and explicitly. The owning thread must not call Run
// afterwards.
func (h *Host[C]) Close() {
	h.quitOnce.Do(func() {
		close(h.quit)
	})
}

// Handle submits commands to the owning thread.
type Handle[C any] struct {
	cmds chan<- command[C]
	quit <-chan struct{}
}

// Run sends fn to the owning thread and blocks until it has run to
// completion there. Results travel through variables captured by fn.
// Returns a channel-closed error if the host has shut down.
func (h Handle[C]) Run(fn func(C)) error {
	cmd := command[C]{fn: fn, done: make(chan struct{})}

	select {
	case h.cmds <- cmd:
	case <-h.quit:
		return errors.ChannelClosed()
	}

	select {
	case <-cmd.done:
		return nil
	case <-h.quit:
		// The command may still have completed; prefer reporting success.
		select {
		case <-cmd.done:
			return nil
		default:
			return errors.ChannelClosed()
		}
	}
}
