package ftp

import (
	"errors"
	"net"
	"time"
)

// deadlineConn wraps a net.Conn and arms a read/write deadline before
// every operation. Data channels are wrapped with it so a stalled
// transfer surfaces as a timeout instead of blocking forever.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (n int, err error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (n int, err error) {
	if c.timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}

// asTimeout converts a network timeout into a *TimeoutError tagged with
// the operation name. Other errors pass through unchanged.
func asTimeout(op string, err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{Op: op, Err: err}
	}
	return err
}
