package remote

import (
	"net"
	"testing"
	"time"

	"github.com/ape-emu/ape/errors"
	"github.com/ape-emu/ape/hook"
)

// fakeDevice is an in-memory stand-in for the emulation runtime: a ROM
// snapshot and one mapped bus region with truncating reads and writes.
type fakeDevice struct {
	rom     []byte
	busBase uint
	bus     []byte
}

func (d *fakeDevice) ReadDomain(domain string, addr uint, size int) ([]byte, error) {
	switch domain {
	case "ROM":
		return clampRead(d.rom, addr, size), nil
	case "System Bus":
		if addr < d.busBase {
			return nil, nil
		}
		return clampRead(d.bus, addr-d.busBase, size), nil
	default:
		return nil, errors.UnknownDomain(domain)
	}
}

func (d *fakeDevice) WriteDomain(domain string, addr uint, data []byte) (int, error) {
	switch domain {
	case "ROM":
		return 0, errors.InvalidInput(errors.PhaseMemory, "domain \"ROM\" is read-only")
	case "System Bus":
		if addr < d.busBase || addr-d.busBase >= uint(len(d.bus)) {
			return 0, nil
		}
		return copy(d.bus[addr-d.busBase:], data), nil
	default:
		return 0, errors.UnknownDomain(domain)
	}
}

func (d *fakeDevice) ROMHash() string  { return "DA39A3EE5E6B4B0D3255BFEF95601890AFD80709" }
func (d *fakeDevice) ROMName() string  { return "Test Game" }
func (d *fakeDevice) SystemID() string { return "game_boy" }

func clampRead(mem []byte, addr uint, size int) []byte {
	if addr >= uint(len(mem)) || size <= 0 {
		return nil
	}
	end := addr + uint(size)
	if end > uint(len(mem)) {
		end = uint(len(mem))
	}
	out := make([]byte, end-addr)
	copy(out, mem[addr:end])
	return out
}

// startHost pumps a command channel host on a background goroutine so
// tests can exercise the servers without a real owning thread.
func startHost(t *testing.T, dev *fakeDevice) hook.Handle[*fakeDevice] {
	t.Helper()
	host := hook.New[*fakeDevice]()
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			host.Run(dev)
			time.Sleep(time.Millisecond)
		}
	}()
	t.Cleanup(func() {
		close(stop)
		host.Close()
	})
	return host.Handle()
}

func startTCP(t *testing.T, dev *fakeDevice) net.Addr {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &TCPServer[*fakeDevice]{handle: startHost(t, dev), ln: ln}
	go func() { _ = s.Serve() }()
	t.Cleanup(func() { _ = s.Close() })
	return ln.Addr()
}

func startUDP(t *testing.T, dev *fakeDevice) net.Addr {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &UDPServer[*fakeDevice]{handle: startHost(t, dev), conn: conn}
	go func() { _ = s.Serve() }()
	t.Cleanup(func() { _ = s.Close() })
	return conn.LocalAddr()
}
