package remote

import (
	"bufio"
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ape-emu/ape/errors"
	"github.com/ape-emu/ape/hook"
)

const (
	// ProtocolVersion answers the bare plaintext VERSION request.
	ProtocolVersion = "1"

	// TCPFirstPort through TCPFirstPort+TCPPortCount-1 are tried in
	// order; the first free one wins.
	TCPFirstPort = 43055
	TCPPortCount = 5

	listenHost = "127.0.0.1"

	// ioDeadline bounds each read and write so a stalled client cannot
	// pin a handler goroutine forever.
	ioDeadline = 60 * time.Second
)

// TCPServer serves the batched JSON protocol, one goroutine per
// connection. Every request executes on the owning thread through one
// Handle.Run call; connections interleave at request granularity.
type TCPServer[C Device] struct {
	handle hook.Handle[C]
	ln     net.Listener
}

// NewTCPServer binds the first free port of the protocol's range. When
// every port is taken the returned error names all attempts.
func NewTCPServer[C Device](handle hook.Handle[C]) (*TCPServer[C], error) {
	ln, err := bindFirstFree(listenHost, TCPFirstPort, TCPPortCount)
	if err != nil {
		return nil, err
	}
	Logger().Info("json protocol listening", zap.String("addr", ln.Addr().String()))
	return &TCPServer[C]{handle: handle, ln: ln}, nil
}

func bindFirstFree(host string, first, count int) (net.Listener, error) {
	bindErr := &errors.PortBindError{}
	for port := first; port < first+count; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return ln, nil
		}
		bindErr.Attempts = append(bindErr.Attempts, errors.PortBindAttempt{Port: port, Err: err})
	}
	return nil, bindErr
}

// Addr returns the bound listener address.
func (s *TCPServer[C]) Addr() net.Addr {
	return s.ln.Addr()
}

// Close stops the listener; Serve returns once the accept loop notices.
func (s *TCPServer[C]) Close() error {
	return s.ln.Close()
}

// Serve accepts connections until the listener closes.
func (s *TCPServer[C]) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if stderrors.Is(err, net.ErrClosed) {
				return nil
			}
			Logger().Warn("failed to accept client", zap.Error(err))
			continue
		}
		go s.serveConn(conn)
	}
}

// batchState is the per-connection batching state: whether the current
// batch extends across lines, and the held guard response awaiting
// emission.
type batchState struct {
	locked bool
	held   *Response
}

func (s *TCPServer[C]) serveConn(conn net.Conn) {
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	Logger().Info("client connected", zap.String("peer", peer))

	r := bufio.NewReader(conn)
	var st batchState

	for {
		line, err := readLine(conn, r)
		if err != nil {
			if err == io.EOF {
				Logger().Info("client disconnected", zap.String("peer", peer))
			} else {
				Logger().Warn("failed to receive requests",
					zap.String("peer", peer), zap.Error(err))
			}
			return
		}

		if strings.EqualFold(strings.TrimSpace(line), "VERSION") {
			// The one documented exception to the JSON envelope.
			if err := writeLine(conn, ProtocolVersion+"\n"); err != nil {
				Logger().Warn("failed to send version", zap.String("peer", peer), zap.Error(err))
				return
			}
			continue
		}

		var reqs []Request
		if err := json.Unmarshal([]byte(line), &reqs); err != nil {
			Logger().Warn("failed to parse requests",
				zap.String("peer", peer), zap.Error(err))
			return
		}

		resps := s.runBatch(reqs, &st)

		payload, err := json.Marshal(resps)
		if err != nil {
			Logger().Warn("failed to encode responses", zap.String("peer", peer), zap.Error(err))
			return
		}
		if err := writeLine(conn, string(payload)+"\n"); err != nil {
			Logger().Warn("failed to send responses", zap.String("peer", peer), zap.Error(err))
			return
		}

		// A locked batch extends into the next line and keeps its guard
		// state; an unlocked one is complete.
		if !st.locked {
			st = batchState{}
		}
	}
}

// runBatch processes one line of requests in order. A guard's response is
// held rather than appended; once a guard has failed, the held response
// is emitted before and in place of each subsequent response and the
// requests themselves do not execute, leaving memory untouched.
func (s *TCPServer[C]) runBatch(reqs []Request, st *batchState) []Response {
	resps := make([]Response, 0, len(reqs))

	for _, req := range reqs {
		if st.held != nil {
			resps = append(resps, *st.held)
			if !st.held.Bool {
				resps = append(resps, *st.held)
				continue
			}
		}

		resp := s.dispatch(req)

		switch resp.Type {
		case RespLocked:
			st.locked = true
		case RespUnlocked:
			st.locked = false
		case RespGuard:
			st.held = &resp
			continue
		}

		resps = append(resps, resp)
	}

	return resps
}

func (s *TCPServer[C]) dispatch(req Request) Response {
	var resp Response
	if err := s.handle.Run(func(dev C) { resp = execute(req, dev) }); err != nil {
		return errorResponse("emulation has stopped")
	}
	return resp
}

func execute(req Request, dev Device) Response {
	switch req.Type {
	case ReqPing:
		Logger().Info("received ping from client")
		return pong()

	case ReqSystem:
		return systemResponse(dev.SystemID())

	case ReqHash:
		return hashResponse(dev.ROMHash())

	case ReqGuard:
		expected, err := req.ExpectedBytes()
		if err != nil {
			return errorResponse(err.Error())
		}
		data, err := dev.ReadDomain(req.Domain, uint(req.Address), len(expected))
		if err != nil {
			return errorResponse(err.Error())
		}
		if len(data) != len(expected) {
			Logger().Warn("incomplete guard read",
				zap.Uint64("address", req.Address),
				zap.Int("expected", len(expected)),
				zap.Int("read", len(data)))
		}
		return guardResponse(bytes.Equal(data, expected), req.Address)

	case ReqRead:
		data, err := dev.ReadDomain(req.Domain, uint(req.Address), req.Size)
		if err != nil {
			return errorResponse(err.Error())
		}
		if len(data) != req.Size {
			Logger().Warn("incomplete read",
				zap.Uint64("address", req.Address),
				zap.Int("requested", req.Size),
				zap.Int("read", len(data)))
		}
		return readResponse(data)

	case ReqWrite:
		value, err := req.ValueBytes()
		if err != nil {
			return errorResponse(err.Error())
		}
		n, err := dev.WriteDomain(domainSystemBus, uint(req.Address), value)
		if err != nil {
			return errorResponse(err.Error())
		}
		if n != len(value) {
			Logger().Warn("incomplete write",
				zap.Uint64("address", req.Address),
				zap.Int("requested", len(value)),
				zap.Int("written", n))
		}
		return writeResponse()

	case ReqPreferredCores, ReqLock, ReqUnlock, ReqDisplayMessage, ReqSetMessageInterval:
		return errorResponse("unimplemented command: " + req.Type)

	default:
		return errorResponse("unknown command: " + req.Type)
	}
}

func readLine(conn net.Conn, r *bufio.Reader) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(ioDeadline)); err != nil {
		return "", err
	}
	return r.ReadString('\n')
}

func writeLine(conn net.Conn, line string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(ioDeadline)); err != nil {
		return err
	}
	_, err := conn.Write([]byte(line))
	return err
}
