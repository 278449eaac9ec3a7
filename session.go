package ftp

import (
	"errors"
)

// State is the lifecycle position of a client session.
type State int

const (
	// StateDisconnected means no control connection exists yet.
	StateDisconnected State = iota

	// StateConnected means the control socket is open and the greeting
	// was accepted, but no login has succeeded.
	StateConnected

	// StateAuthenticated means login succeeded; the full operation set
	// is available.
	StateAuthenticated

	// StateClosed is terminal. It is reached from any state via Close,
	// a fatal reply, or a timeout.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// Connect opens the control connection and consumes the 220 greeting,
// moving the session from Disconnected to Connected. On failure the
// session stays Disconnected and can be retried. Calling Connect on a
// session that is already connected is a no-op.
func (c *Client) Connect() error {
	switch c.State() {
	case StateConnected, StateAuthenticated:
		return nil
	case StateClosed:
		return ErrClosed
	}

	if c.cfg.Host == "" {
		return &ConnectError{Addr: c.cfg.addr(), Err: errors.New("no host configured")}
	}

	addr := c.cfg.addr()
	c.logger.Debug("connecting to ftp server", "addr", addr)

	ctrl, err := dialControl(c.dialer, addr, c.cfg.Timeout, c.logger)
	if err != nil {
		return err
	}

	greeting, err := ctrl.readReply("greeting")
	if err != nil {
		ctrl.abort()
		return err
	}

	if greeting.Code != 220 {
		ctrl.abort()
		return &ProtocolError{Reply: greeting.Message, Code: greeting.Code}
	}

	c.mu.Lock()
	c.ctrl = ctrl
	c.state = StateConnected
	c.mu.Unlock()

	c.lastReply = greeting
	c.passive = !c.cfg.DisablePassive
	c.currentType = ""
	return nil
}

// Login authenticates with the configured username and password via the
// USER/PASS exchange, moving the session from Connected to Authenticated.
//
// On a rejected login the session is closed, unless
// Config.StayOnLoginFailure is set, in which case it remains Connected so
// other credentials can be tried on the same connection.
func (c *Client) Login() error {
	switch c.State() {
	case StateDisconnected:
		return ErrNotConnected
	case StateClosed:
		return ErrClosed
	case StateAuthenticated:
		return nil
	}

	reply, err := c.ctrl.cmd("USER", c.cfg.User)
	if err != nil {
		return c.fatalIfTimeout(err)
	}
	c.lastReply = reply

	// 230 straight after USER means no password is required.
	if reply.Code == 230 {
		c.setState(StateAuthenticated)
		return nil
	}

	if reply.Code != 331 && reply.Code != 332 {
		return c.loginRejected(reply)
	}

	reply, err = c.ctrl.cmd("PASS", c.cfg.Password)
	if err != nil {
		return c.fatalIfTimeout(err)
	}
	c.lastReply = reply

	if reply.Code != 230 {
		return c.loginRejected(reply)
	}

	c.setState(StateAuthenticated)
	return nil
}

// loginRejected applies the configured post-failure policy and returns
// the AuthenticationError. The cascading close is local policy; it is not
// reported beyond the login failure itself.
func (c *Client) loginRejected(reply *Reply) error {
	authErr := &AuthenticationError{
		User:    c.cfg.User,
		Code:    reply.Code,
		Message: reply.Message,
	}

	if !c.cfg.StayOnLoginFailure {
		_ = c.Close()
	}

	return authErr
}

// SetPassive toggles the passive flag consulted by the next transfer.
// It issues no wire traffic by itself; passive negotiation happens per
// transfer. Legal once connected.
func (c *Client) SetPassive(on bool) error {
	switch c.State() {
	case StateDisconnected:
		return ErrNotConnected
	case StateClosed:
		return ErrClosed
	}

	c.passive = on
	return nil
}

// EnsureReady brings the session to a usable state in one step: connect if
// disconnected, then log in if a username is configured. It is idempotent;
// calling it while already ready returns immediately without reissuing any
// commands.
//
// If the connect succeeds but the configured login is rejected, the
// connection is closed and the login failure is reported, regardless of
// the stay-on-login-failure flag: a composite that half-succeeded is
// rolled back rather than left dangling.
func (c *Client) EnsureReady() error {
	switch c.State() {
	case StateClosed:
		return ErrClosed
	case StateAuthenticated:
		return nil
	}

	if c.State() == StateDisconnected {
		if err := c.Connect(); err != nil {
			return err
		}
	}

	if c.cfg.User == "" {
		// Nothing to log in as; Connected is as ready as it gets.
		return nil
	}

	if err := c.Login(); err != nil {
		if c.State() != StateClosed {
			_ = c.Close()
		}
		return err
	}

	return nil
}

// Close terminates the session from any state: a best-effort QUIT, then
// unconditional release of the control socket and any in-flight data
// channel. Closing an already-closed session is a no-op success.
//
// Close may be called from another goroutine to cancel an in-flight
// transfer. In that case both sockets are closed so the blocked reads
// unblock, the QUIT exchange is skipped (the control reader belongs to
// the transfer goroutine), and the cancelled Get or Put returns ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}

	if c.dataConn != nil {
		_ = c.dataConn.Close()
		c.dataConn = nil
	}

	if c.transferring {
		// The transfer goroutine owns the control reader. Closing the
		// socket unblocks it; it observes the Closed state and drops
		// the ctrl reference itself.
		ctrl := c.ctrl
		c.state = StateClosed
		c.mu.Unlock()

		if ctrl != nil {
			ctrl.abort()
		}
		return nil
	}

	ctrl := c.ctrl
	c.ctrl = nil
	c.state = StateClosed
	c.mu.Unlock()

	if ctrl != nil {
		return ctrl.close()
	}
	return nil
}

// setState replaces the lifecycle state under the lock shared with Close.
func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// fatalIfTimeout forces the session to Closed when err carries a timeout.
// A timed-out control exchange leaves the reply stream in an unknown
// position, so the connection cannot be trusted for further commands.
func (c *Client) fatalIfTimeout(err error) error {
	var te *TimeoutError
	if !errors.As(err, &te) {
		return err
	}

	c.mu.Lock()
	if c.dataConn != nil {
		_ = c.dataConn.Close()
		c.dataConn = nil
	}
	ctrl := c.ctrl
	c.ctrl = nil
	c.state = StateClosed
	c.mu.Unlock()

	if ctrl != nil {
		ctrl.abort()
	}
	return err
}

// closedDuringTransfer reports whether Close ran while this goroutine held
// the transfer slot, and finishes the teardown Close deferred: the sockets
// are already closed, only the ctrl reference remains to drop.
func (c *Client) closedDuringTransfer() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateClosed {
		return false
	}
	c.ctrl = nil
	return true
}

// transferErr maps a mid-transfer failure caused by a concurrent Close to
// ErrClosed, and otherwise applies the timeout teardown policy.
func (c *Client) transferErr(err error) error {
	if c.closedDuringTransfer() {
		return ErrClosed
	}
	return c.fatalIfTimeout(err)
}

// requireAuth guards operations that are legal only in Authenticated
// state. It rejects without sending anything on the wire.
func (c *Client) requireAuth() error {
	switch c.State() {
	case StateAuthenticated:
		return nil
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotAuthenticated
	}
}

// requireConn guards operations that are legal once a control connection
// exists, authenticated or not.
func (c *Client) requireConn() error {
	switch c.State() {
	case StateConnected, StateAuthenticated:
		return nil
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotConnected
	}
}
