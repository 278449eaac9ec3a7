package ftp

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// Client is one logical FTP session: a state machine over a single control
// connection, with at most one data transfer in flight at a time.
//
// A Client is not safe for concurrent use; FTP is half-duplex
// request/reply, so callers driving one session from several goroutines
// must serialize access themselves. Two concessions are made for
// concurrency: a second Get/Put while one is streaming fails fast with
// ErrBusy instead of interleaving on the control stream, and Close may be
// called from another goroutine to cancel an in-flight transfer.
type Client struct {
	// cfg is the configuration record the session was built from
	cfg Config

	// logger is used for debug logging of every command/reply exchange
	logger *slog.Logger

	// dialer is used for both control and data connections
	dialer *net.Dialer

	// state is the session lifecycle position; guarded by mu
	state State

	// ctrl is the control connection; nil unless state is Connected or
	// Authenticated. A session never has more than one. Guarded by mu.
	ctrl *controlConn

	// passive is the flag consulted by the next transfer
	passive bool

	// disableEPSV forces PASV after a server rejected EPSV with 502
	disableEPSV bool

	// currentType tracks the last TYPE sent, to skip redundant commands
	currentType Mode

	// restOffset is a pending REST marker consumed by the next transfer
	restOffset int64

	// lastReply records the most recent reply for diagnostics
	lastReply *Reply

	// mu guards the lifecycle fields above and the transfer slot below,
	// the places a concurrent Close touches
	mu           sync.Mutex
	transferring bool
	dataConn     net.Conn
}

// NewClient builds a client from a configuration record. It does not
// touch the network; the session starts Disconnected and is driven by
// Connect/Login or EnsureReady.
//
// Example:
//
//	client, err := ftp.NewClient(ftp.Config{
//	    Host: "ftp.example.com",
//	    User: "anonymous",
//	    Password: "anonymous@",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.EnsureReady(); err != nil {
//	    log.Fatal(err)
//	}
func NewClient(cfg Config, options ...Option) (*Client, error) {
	cfg = cfg.withDefaults()

	c := &Client{
		cfg:     cfg,
		state:   StateDisconnected,
		passive: !cfg.DisablePassive,
		dialer:  &net.Dialer{},
		logger:  slog.New(slog.DiscardHandler), // No-op logger by default
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	c.dialer.Timeout = c.cfg.Timeout
	return c, nil
}

// State returns the session's current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Conn returns the live control connection, or nil when the session has
// none (Disconnected or Closed).
func (c *Client) Conn() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed || c.ctrl == nil {
		return nil
	}
	return c.ctrl.conn
}

// LastReply returns the most recent server reply, or nil before the first
// exchange. Useful for logging the text behind a failure.
func (c *Client) LastReply() *Reply {
	return c.lastReply
}

// Pwd returns the server-side working directory via PWD.
// Requires an authenticated session.
func (c *Client) Pwd() (string, error) {
	if err := c.requireAuth(); err != nil {
		return "", err
	}

	reply, err := c.ctrl.expect2xx("PWD")
	if err != nil {
		return "", c.fatalIfTimeout(err)
	}
	c.lastReply = reply

	return parsePathReply(reply)
}

// parsePathReply extracts the quoted path from a 257 reply.
// Example: 257 "/home/user" is the current directory
func parsePathReply(reply *Reply) (string, error) {
	msg := reply.Message
	start := strings.Index(msg, "\"")
	if start == -1 {
		return "", &ProtocolError{Command: "PWD", Reply: msg, Code: reply.Code}
	}
	end := strings.Index(msg[start+1:], "\"")
	if end == -1 {
		return "", &ProtocolError{Command: "PWD", Reply: msg, Code: reply.Code}
	}

	return msg[start+1 : start+1+end], nil
}

// Noop sends a NOOP to the server. Useful as a manual keepalive during
// long idle periods; the client never sends one on its own.
func (c *Client) Noop() error {
	if err := c.requireConn(); err != nil {
		return err
	}

	reply, err := c.ctrl.expect2xx("NOOP")
	if err != nil {
		return c.fatalIfTimeout(err)
	}
	c.lastReply = reply
	return nil
}

// Quote sends a raw command and returns its reply. This is the escape
// hatch for commands the client does not model.
//
// Example:
//
//	reply, err := client.Quote("SITE", "CHMOD", "755", "script.sh")
func (c *Client) Quote(verb string, args ...string) (*Reply, error) {
	if err := c.requireConn(); err != nil {
		return nil, err
	}

	reply, err := c.ctrl.cmd(verb, args...)
	if err != nil {
		return nil, c.fatalIfTimeout(err)
	}
	c.lastReply = reply
	return reply, nil
}

// Deadline reports the per-operation timeout the session was built with.
func (c *Client) Deadline() time.Duration {
	return c.cfg.Timeout
}
