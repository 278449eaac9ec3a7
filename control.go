package ftp

import (
	"bufio"
	"log/slog"
	"net"
	"time"
)

// controlConn owns the single reliable byte stream to the server's control
// port and sequences synchronous command/reply exchanges over it. It never
// retries; retry policy belongs to the caller.
type controlConn struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
	logger  *slog.Logger
}

// dialControl establishes the control connection. It does not read the
// greeting; the session state machine owns that part of the handshake.
func dialControl(dialer *net.Dialer, addr string, timeout time.Duration, logger *slog.Logger) (*controlConn, error) {
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	return &controlConn{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// readReply reads one complete reply from the control stream, deadline
// bounded. Used for the greeting and for transfer completion replies,
// which arrive without a paired command write.
func (cc *controlConn) readReply(op string) (*Reply, error) {
	if cc.timeout > 0 {
		if err := cc.conn.SetReadDeadline(time.Now().Add(cc.timeout)); err != nil {
			return nil, err
		}
	}

	reply, err := readReply(cc.reader)
	if err != nil {
		return nil, asTimeout(op, err)
	}

	cc.logger.Debug("ftp reply", "code", reply.Code, "class", reply.Class().String(), "message", reply.Message)
	return reply, nil
}

// cmd writes one command and blocks until its complete reply is decoded.
func (cc *controlConn) cmd(verb string, args ...string) (*Reply, error) {
	wire, err := encodeCommand(verb, args...)
	if err != nil {
		return nil, err
	}

	cc.logger.Debug("ftp command", "verb", verb, "args", args)

	if cc.timeout > 0 {
		if err := cc.conn.SetWriteDeadline(time.Now().Add(cc.timeout)); err != nil {
			return nil, err
		}
	}

	if _, err := cc.conn.Write(wire); err != nil {
		return nil, asTimeout(verb, err)
	}

	return cc.readReply(verb)
}

// expectCode sends a command and verifies the reply code matches exactly.
func (cc *controlConn) expectCode(expected int, verb string, args ...string) (*Reply, error) {
	reply, err := cc.cmd(verb, args...)
	if err != nil {
		return nil, err
	}

	if reply.Code != expected {
		return reply, &ProtocolError{
			Command: verb,
			Reply:   reply.Message,
			Code:    reply.Code,
		}
	}

	return reply, nil
}

// expect2xx sends a command and verifies the reply is a completion (2xx).
func (cc *controlConn) expect2xx(verb string, args ...string) (*Reply, error) {
	reply, err := cc.cmd(verb, args...)
	if err != nil {
		return nil, err
	}

	if !reply.Is2xx() {
		return reply, &ProtocolError{
			Command: verb,
			Reply:   reply.Message,
			Code:    reply.Code,
		}
	}

	return reply, nil
}

// close sends QUIT best-effort and releases the socket unconditionally.
// A failed QUIT never blocks resource release.
func (cc *controlConn) close() error {
	if wire, err := encodeCommand("QUIT"); err == nil {
		if cc.timeout > 0 {
			_ = cc.conn.SetWriteDeadline(time.Now().Add(cc.timeout))
		}
		if _, err := cc.conn.Write(wire); err == nil {
			// Drain the 221 goodbye so the server sees a clean shutdown.
			_, _ = cc.readReply("QUIT")
		}
	}

	return cc.conn.Close()
}

// abort closes the socket without the QUIT exchange. Used when the control
// stream can no longer be trusted (e.g., after a timeout).
func (cc *controlConn) abort() {
	_ = cc.conn.Close()
}
