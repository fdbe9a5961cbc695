package remote

import (
	"net"
	"testing"
	"time"
)

type udpClient struct {
	t    *testing.T
	conn net.Conn
}

func dialUDP(t *testing.T, addr net.Addr) *udpClient {
	t.Helper()
	conn, err := net.Dial("udp", addr.String())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &udpClient{t: t, conn: conn}
}

func (c *udpClient) exchange(msg string) string {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(msg)); err != nil {
		c.t.Fatalf("failed to send: %v", err)
	}
	buf := make([]byte, maxDatagram)
	if err := c.conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		c.t.Fatalf("failed to set deadline: %v", err)
	}
	n, err := c.conn.Read(buf)
	if err != nil {
		c.t.Fatalf("failed to read reply: %v", err)
	}
	return string(buf[:n])
}

// expectNoReply sends msg and asserts the server stays silent.
func (c *udpClient) expectNoReply(msg string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(msg)); err != nil {
		c.t.Fatalf("failed to send: %v", err)
	}
	buf := make([]byte, maxDatagram)
	if err := c.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)); err != nil {
		c.t.Fatalf("failed to set deadline: %v", err)
	}
	if n, err := c.conn.Read(buf); err == nil {
		c.t.Fatalf("expected no reply, got %q", buf[:n])
	}
}

func TestUDPVersion(t *testing.T) {
	addr := startUDP(t, &fakeDevice{})
	c := dialUDP(t, addr)

	if got := c.exchange("VERSION"); got != UDPVersion+"\n" {
		t.Fatalf("wrong version reply: %q", got)
	}
}

func TestUDPGetStatus(t *testing.T) {
	addr := startUDP(t, &fakeDevice{})
	c := dialUDP(t, addr)

	want := "GET_STATUS PLAYING game_boy,Test Game,DA39A3EE5E6B4B0D3255BFEF95601890AFD80709\n"
	if got := c.exchange("GET_STATUS"); got != want {
		t.Fatalf("wrong status reply:\n got %q\nwant %q", got, want)
	}
}

func TestUDPReadCoreMemory(t *testing.T) {
	dev := &fakeDevice{busBase: 0x100, bus: []byte{0xAB, 0x00, 0xFF}}
	addr := startUDP(t, dev)
	c := dialUDP(t, addr)

	if got := c.exchange("READ_CORE_MEMORY 100 3"); got != "READ_CORE_MEMORY 100 AB 00 FF\n" {
		t.Fatalf("wrong read reply: %q", got)
	}

	// The reply echoes the address exactly as sent, 0x prefix included,
	// and truncated reads return fewer bytes.
	if got := c.exchange("READ_CORE_MEMORY 0x102 5"); got != "READ_CORE_MEMORY 0x102 FF\n" {
		t.Fatalf("wrong truncated read reply: %q", got)
	}
}

func TestUDPWriteCoreMemory(t *testing.T) {
	dev := &fakeDevice{busBase: 0x100, bus: []byte{0, 0, 0}}
	addr := startUDP(t, dev)
	c := dialUDP(t, addr)

	if got := c.exchange("WRITE_CORE_MEMORY 101 AB 0xCD"); got != "WRITE_CORE_MEMORY 101 2\n" {
		t.Fatalf("wrong write reply: %q", got)
	}
	if dev.bus[1] != 0xAB || dev.bus[2] != 0xCD {
		t.Fatalf("bus not updated: %v", dev.bus)
	}
}

func TestUDPMalformedDatagramsAreDropped(t *testing.T) {
	addr := startUDP(t, &fakeDevice{})
	c := dialUDP(t, addr)

	c.expectNoReply("BOGUS_COMMAND")
	c.expectNoReply("READ_CORE_MEMORY zz 4")
	c.expectNoReply("READ_CORE_MEMORY 100")
	c.expectNoReply("WRITE_CORE_MEMORY 100 GG")

	// The server is still alive afterwards.
	if got := c.exchange("VERSION"); got != UDPVersion+"\n" {
		t.Fatalf("server stopped answering: %q", got)
	}
}
