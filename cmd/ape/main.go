package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ape-emu/ape/core"
	"github.com/ape-emu/ape/hook"
	"github.com/ape-emu/ape/libretro"
	"github.com/ape-emu/ape/remote"
)

type config struct {
	CorePath string `env:"APE_CORE"`
	ROMPath  string `env:"APE_ROM"`
}

func main() {
	var (
		corePath    = flag.String("core", "", "Path to the libretro core library")
		romPath     = flag.String("rom", "", "Path to the content file")
		interactive = flag.Bool("i", false, "Interactive memory inspector TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *corePath != "" {
		cfg.CorePath = *corePath
	}
	if *romPath != "" {
		cfg.ROMPath = *romPath
	}

	if cfg.CorePath == "" || cfg.ROMPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: ape -core <core.so> -rom <content> [-i] [-v]")
		fmt.Fprintln(os.Stderr, "       APE_CORE and APE_ROM provide defaults for -core and -rom")
		os.Exit(1)
	}

	logger := newLogger(*interactive, *verbose)
	defer logger.Sync()
	core.SetLogger(logger)
	remote.SetLogger(logger)

	// Plugin entry points are not safe to migrate between OS threads.
	runtime.LockOSThread()

	if err := run(cfg, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. Interactive mode keeps the
// terminal for the TUI, so logging goes quiet there.
func newLogger(interactive, verbose bool) *zap.Logger {
	if interactive {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func run(cfg config, interactive bool) error {
	host := hook.New[*core.Core]()

	loadCfg := core.Config{CorePath: cfg.CorePath, ROMPath: cfg.ROMPath}
	return core.Load(loadCfg, &headlessCallbacks{}, func(c *core.Core) error {
		defer host.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)

		if interactive {
			g.Go(func() error {
				defer stop()
				return runInspector(host.Handle(), cfg.ROMPath)
			})
		} else {
			tcp, err := remote.NewTCPServer(host.Handle())
			if err != nil {
				return err
			}
			udp, err := remote.NewUDPServer(host.Handle())
			if err != nil {
				tcp.Close()
				return err
			}
			g.Go(tcp.Serve)
			g.Go(udp.Serve)
			g.Go(func() error {
				<-gctx.Done()
				tcp.Close()
				udp.Close()
				return nil
			})
		}

		frameLoop(gctx, c, host)

		// Release any handler goroutine blocked on the command channel
		// before waiting for the group.
		host.Close()
		if err := g.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
}

// frameLoop steps the core at its reported frame rate, draining the
// command channel between frames. Runs on the locked thread.
func frameLoop(ctx context.Context, c *core.Core, host *hook.Host[*core.Core]) {
	fps := c.AVInfo().FPS
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Run()
			host.Run(c)
		}
	}
}

// headlessCallbacks counts frames and audio and reads no input. Only
// touched by the owning thread.
type headlessCallbacks struct {
	frames  uint64
	samples uint64
}

func (h *headlessCallbacks) VideoFrame(f *core.Frame) {
	if f != nil {
		h.frames++
	}
}

func (h *headlessCallbacks) AudioSample(_, _ int16) {
	h.samples++
}

func (h *headlessCallbacks) AudioSamples(s []int16) {
	h.samples += uint64(len(s) / 2)
}

func (h *headlessCallbacks) InputPoll() {}

func (h *headlessCallbacks) InputState(_, _, _, _ uint32) int16 {
	return 0
}

func (h *headlessCallbacks) SupportsPixelFormat(f libretro.PixelFormat) bool {
	return f == libretro.PixelFormatXRGB8888 || f == libretro.PixelFormatRGB565
}

func (h *headlessCallbacks) CanDupeFrames() bool {
	return true
}
