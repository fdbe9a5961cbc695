package hook

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/ape-emu/ape/errors"
)

type counter struct {
	executing bool
	runs      int
	order     []int
}

func TestHandle_RunExecutesOnHost(t *testing.T) {
	host := New[*counter]()
	handle := host.Handle()
	c := &counter{}

	done := make(chan error, 1)
	go func() {
		done <- handle.Run(func(c *counter) { c.runs++ })
	}()

	// Drain until the command has been executed.
	deadline := time.After(5 * time.Second)
	for c.runs == 0 {
		select {
		case <-deadline:
			t.Fatal("Command never executed")
		default:
			host.Run(c)
		}
	}

	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if c.runs != 1 {
		t.Fatalf("Expected 1 run, got %d", c.runs)
	}
}

func TestHandle_RunBlocksUntilExecuted(t *testing.T) {
	host := New[*counter]()
	handle := host.Handle()
	c := &counter{}

	returned := make(chan struct{})
	go func() {
		handle.Run(func(c *counter) {
			time.Sleep(50 * time.Millisecond)
			c.runs++
		})
		close(returned)
	}()

	// Give the submitter time to rendezvous, then execute.
	time.Sleep(10 * time.Millisecond)
	select {
	case <-returned:
		t.Fatal("Run returned before the host executed the command")
	default:
	}

	host.Run(c)
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after execution")
	}
	if c.runs != 1 {
		t.Fatalf("Expected 1 run, got %d", c.runs)
	}
}

func TestHost_SerializesConcurrentSubmitters(t *testing.T) {
	const n = 32

	host := New[*counter]()
	c := &counter{}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handle := host.Handle()
			if err := handle.Run(func(c *counter) {
				if c.executing {
					t.Error("Two commands executing concurrently")
				}
				c.executing = true
				c.order = append(c.order, i)
				c.executing = false
			}); err != nil {
				t.Errorf("Run failed: %v", err)
			}
		}(i)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case <-finished:
			if len(c.order) != n {
				t.Fatalf("Expected %d executions, got %d", n, len(c.order))
			}
			return
		case <-deadline:
			t.Fatalf("Timed out with %d of %d executions", len(c.order), n)
		default:
			host.Run(c)
		}
	}
}

func TestHost_RunDrainsBoundedBatch(t *testing.T) {
	host := New[*counter]()
	c := &counter{}

	// No pending commands: Run must return immediately.
	start := time.Now()
	host.Run(c)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Run blocked for %v with no pending commands", elapsed)
	}
}

func TestHandle_ChannelClosed(t *testing.T) {
	host := New[*counter]()
	handle := host.Handle()

	// Blocked submitter is released by Close.
	errCh := make(chan error, 1)
	go func() {
		errCh <- handle.Run(func(*counter) {})
	}()
	time.Sleep(10 * time.Millisecond)
	host.Close()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, errors.ChannelClosed()) {
			t.Fatalf("Expected channel-closed error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Blocked submitter was not released by Close")
	}

	// Submissions after Close fail immediately.
	if err := handle.Run(func(*counter) {}); !stderrors.Is(err, errors.ChannelClosed()) {
		t.Fatalf("Expected channel-closed error after Close, got %v", err)
	}
}

func TestHost_CloseIsIdempotent(t *testing.T) {
	host := New[*counter]()
	handle := host.Handle()

	// Shutdown paths close both deferred and explicitly; a second Close
	// must not panic.
	host.Close()
	host.Close()

	if err := handle.Run(func(*counter) {}); !stderrors.Is(err, errors.ChannelClosed()) {
		t.Fatalf("Expected channel-closed error after double Close, got %v", err)
	}
}
