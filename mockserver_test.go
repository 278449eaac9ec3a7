package ftp

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockServer is a scripted single-connection FTP server for tests. It
// speaks just enough of the protocol to drive the client, and exposes
// knobs for the faults a real server will not produce on demand:
// rejected logins, truncated transfers, silent commands.
type mockServer struct {
	t    *testing.T
	ln   net.Listener
	addr string

	mu       sync.Mutex
	commands []string
	files    map[string][]byte

	// fault knobs, set before the client connects
	rejectLogin  bool          // 530 on PASS (and on USER for unknown users)
	noEPSV       bool          // 502 on EPSV
	retrTruncate int           // >= 0: send only this many bytes, advertise the full size
	retrGate     chan struct{} // when non-nil, RETR stalls mid-stream until closed
	retrStarted  chan struct{} // closed when RETR starts streaming
	mutePWD      bool          // swallow PWD without replying

	pendingData net.Listener
}

func newMockServer(t *testing.T, opts ...func(*mockServer)) *mockServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("mock server listen: %v", err)
	}

	s := &mockServer{
		t:            t,
		ln:           ln,
		addr:         ln.Addr().String(),
		files:        make(map[string][]byte),
		retrTruncate: -1,
	}

	// Knobs are applied before the accept loop starts so the handler
	// goroutine observes them without further locking.
	for _, opt := range opts {
		opt(s)
	}

	go s.acceptLoop()
	t.Cleanup(func() { _ = ln.Close() })

	return s
}

func (s *mockServer) host() string {
	host, _, _ := net.SplitHostPort(s.addr)
	return host
}

func (s *mockServer) port() int {
	_, portStr, _ := net.SplitHostPort(s.addr)
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port
}

// config returns a Config pointed at the mock with a short test timeout.
func (s *mockServer) config() Config {
	return Config{
		Host:     s.host(),
		Port:     s.port(),
		User:     "tester",
		Password: "secret",
		Timeout:  2 * time.Second,
	}
}

// countCommands reports how many received commands start with the verb.
func (s *mockServer) countCommands(verb string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, cmd := range s.commands {
		if strings.HasPrefix(cmd, verb) {
			n++
		}
	}
	return n
}

func (s *mockServer) file(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

func (s *mockServer) setFile(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
}

func (s *mockServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *mockServer) handleConn(conn net.Conn) {
	defer conn.Close()

	reply := func(format string, args ...any) {
		fmt.Fprintf(conn, format+"\r\n", args...)
	}

	reply("220 mock FTP server ready")

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		s.mu.Lock()
		s.commands = append(s.commands, line)
		s.mu.Unlock()

		verb, arg, _ := strings.Cut(line, " ")

		switch verb {
		case "USER":
			if s.rejectLogin && arg != "tester" {
				reply("530 Login incorrect.")
				continue
			}
			reply("331 Password required.")
		case "PASS":
			if s.rejectLogin {
				reply("530 Login incorrect.")
				continue
			}
			reply("230 Login successful.")
		case "PWD":
			if s.mutePWD {
				continue
			}
			reply(`257 "/home/tester" is the current directory`)
		case "TYPE":
			reply("200 Switching to %s mode.", arg)
		case "NOOP":
			reply("200 NOOP ok.")
		case "REST":
			reply("350 Restart position accepted (%s).", arg)
		case "EPSV":
			if s.noEPSV {
				reply("502 EPSV not implemented.")
				continue
			}
			port, err := s.openDataListener()
			if err != nil {
				reply("425 Can't open data connection.")
				continue
			}
			reply("229 Entering Extended Passive Mode (|||%d|)", port)
		case "PASV":
			port, err := s.openDataListener()
			if err != nil {
				reply("425 Can't open data connection.")
				continue
			}
			reply("227 Entering Passive Mode (127,0,0,1,%d,%d)", port/256, port%256)
		case "RETR":
			s.handleRetr(reply, arg)
		case "STOR":
			s.handleStor(reply, arg)
		case "QUIT":
			reply("221 Goodbye.")
			return
		default:
			reply("500 Unknown command.")
		}
	}
}

func (s *mockServer) openDataListener() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	s.pendingData = ln

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port, nil
}

func (s *mockServer) acceptData() (net.Conn, error) {
	ln := s.pendingData
	s.pendingData = nil
	if ln == nil {
		return nil, fmt.Errorf("no data listener pending")
	}
	defer ln.Close()

	if tcp, ok := ln.(*net.TCPListener); ok {
		_ = tcp.SetDeadline(time.Now().Add(5 * time.Second))
	}
	return ln.Accept()
}

func (s *mockServer) handleRetr(reply func(string, ...any), path string) {
	data, ok := s.file(path)
	if !ok {
		reply("550 Failed to open file.")
		return
	}

	// The size hint always states the full size, even when the fault
	// knob truncates the stream.
	reply("150 Opening BINARY mode data connection for %s (%d bytes)", path, len(data))

	conn, err := s.acceptData()
	if err != nil {
		reply("425 Can't open data connection.")
		return
	}

	if s.retrStarted != nil {
		close(s.retrStarted)
		s.retrStarted = nil
	}

	payload := data
	if s.retrTruncate >= 0 && s.retrTruncate < len(data) {
		payload = data[:s.retrTruncate]
	}

	if s.retrGate != nil {
		// Send half now, stall, send the rest once the gate opens.
		half := len(payload) / 2
		_, _ = conn.Write(payload[:half])
		<-s.retrGate
		payload = payload[half:]
	}

	_, _ = conn.Write(payload)
	_ = conn.Close()

	reply("226 Transfer complete.")
}

// newOneShotServer accepts a single connection, writes the given raw
// greeting and hangs up. Returns a Config pointed at it.
func newOneShotServer(t *testing.T, greeting string) Config {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("one-shot server listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write([]byte(greeting))
		_ = conn.Close()
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	var port int
	fmt.Sscanf(portStr, "%d", &port)

	return Config{Host: host, Port: port, Timeout: 2 * time.Second}
}

func (s *mockServer) handleStor(reply func(string, ...any), path string) {
	reply("150 Ok to send data.")

	conn, err := s.acceptData()
	if err != nil {
		reply("425 Can't open data connection.")
		return
	}

	data, _ := io.ReadAll(conn)
	_ = conn.Close()

	s.setFile(path, data)
	reply("226 Transfer complete.")
}
