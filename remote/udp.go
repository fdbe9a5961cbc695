package remote

import (
	stderrors "errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ape-emu/ape/hook"
)

const (
	// UDPVersion answers the datagram VERSION command.
	UDPVersion = "1.14.0"

	// UDPPort is the protocol's well-known port.
	UDPPort = 55355

	maxDatagram = 2048
)

// UDPServer serves the plaintext datagram protocol. Each well-formed
// request gets exactly one reply datagram; malformed requests are logged
// and dropped, since there is no connection to tear down.
type UDPServer[C Device] struct {
	handle hook.Handle[C]
	conn   net.PacketConn
}

// NewUDPServer binds the protocol's well-known port.
func NewUDPServer[C Device](handle hook.Handle[C]) (*UDPServer[C], error) {
	conn, err := net.ListenPacket("udp", net.JoinHostPort(listenHost, strconv.Itoa(UDPPort)))
	if err != nil {
		return nil, err
	}
	Logger().Info("datagram protocol listening", zap.String("addr", conn.LocalAddr().String()))
	return &UDPServer[C]{handle: handle, conn: conn}, nil
}

// Addr returns the bound socket address.
func (s *UDPServer[C]) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Close stops the socket; Serve returns once the receive loop notices.
func (s *UDPServer[C]) Close() error {
	return s.conn.Close()
}

// Serve receives datagrams until the socket closes.
func (s *UDPServer[C]) Serve() error {
	buf := make([]byte, maxDatagram)
	for {
		n, peer, err := s.conn.ReadFrom(buf)
		if err != nil {
			if stderrors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		reply, ok := s.handleDatagram(string(buf[:n]))
		if !ok {
			continue
		}
		if _, err := s.conn.WriteTo([]byte(reply), peer); err != nil {
			Logger().Warn("failed to send reply", zap.Error(err))
		}
	}
}

// handleDatagram returns the reply for one datagram, or ok=false when the
// datagram is malformed and gets no reply.
func (s *UDPServer[C]) handleDatagram(msg string) (string, bool) {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		Logger().Warn("received empty datagram")
		return "", false
	}
	command, args := fields[0], fields[1:]

	switch command {
	case "VERSION":
		return UDPVersion + "\n", true
	case "GET_STATUS":
		return s.handleGetStatus()
	case "READ_CORE_MEMORY":
		return s.handleReadMemory(args)
	case "WRITE_CORE_MEMORY":
		return s.handleWriteMemory(args)
	default:
		Logger().Warn("unknown datagram command", zap.String("command", command))
		return "", false
	}
}

func (s *UDPServer[C]) handleGetStatus() (string, bool) {
	var systemID, romName, hash string
	err := s.handle.Run(func(dev C) {
		systemID = dev.SystemID()
		romName = dev.ROMName()
		hash = dev.ROMHash()
	})
	if err != nil {
		Logger().Warn("status query failed", zap.Error(err))
		return "", false
	}
	return fmt.Sprintf("GET_STATUS PLAYING %s,%s,%s\n", systemID, romName, hash), true
}

func (s *UDPServer[C]) handleReadMemory(args []string) (string, bool) {
	if len(args) != 2 {
		Logger().Warn("READ_CORE_MEMORY needs an address and a length")
		return "", false
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		Logger().Warn("invalid address", zap.String("address", args[0]))
		return "", false
	}
	size, err := strconv.Atoi(args[1])
	if err != nil || size < 0 {
		Logger().Warn("invalid length", zap.String("length", args[1]))
		return "", false
	}

	var data []byte
	runErr := s.handle.Run(func(dev C) {
		data, err = dev.ReadDomain(domainSystemBus, uint(addr), size)
	})
	if runErr != nil || err != nil {
		Logger().Warn("memory read failed", zap.Error(stderrors.Join(runErr, err)))
		return "", false
	}

	var b strings.Builder
	b.WriteString("READ_CORE_MEMORY ")
	// The reply echoes the address exactly as the client sent it.
	b.WriteString(args[0])
	for _, byt := range data {
		fmt.Fprintf(&b, " %02X", byt)
	}
	b.WriteByte('\n')
	return b.String(), true
}

func (s *UDPServer[C]) handleWriteMemory(args []string) (string, bool) {
	if len(args) < 1 {
		Logger().Warn("WRITE_CORE_MEMORY needs an address")
		return "", false
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		Logger().Warn("invalid address", zap.String("address", args[0]))
		return "", false
	}

	data := make([]byte, 0, len(args)-1)
	for _, arg := range args[1:] {
		v, err := strconv.ParseUint(strings.TrimPrefix(arg, "0x"), 16, 8)
		if err != nil {
			Logger().Warn("invalid byte", zap.String("byte", arg))
			return "", false
		}
		data = append(data, byte(v))
	}

	var written int
	runErr := s.handle.Run(func(dev C) {
		written, err = dev.WriteDomain(domainSystemBus, uint(addr), data)
	})
	if runErr != nil || err != nil {
		Logger().Warn("memory write failed", zap.Error(stderrors.Join(runErr, err)))
		return "", false
	}

	return fmt.Sprintf("WRITE_CORE_MEMORY %s %d\n", args[0], written), true
}

func parseAddress(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}
