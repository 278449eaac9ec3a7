package ftp

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
)

var (
	// pasvRegex matches the PASV reply body: 227 Entering Passive Mode (h1,h2,h3,h4,p1,p2)
	pasvRegex = regexp.MustCompile(`\((\d+),(\d+),(\d+),(\d+),(\d+),(\d+)\)`)

	// epsvRegex matches the EPSV reply body: 229 Entering Extended Passive Mode (|||port|)
	epsvRegex = regexp.MustCompile(`\(\|\|\|(\d+)\|\)`)

	// sizeHintRegex matches the size some servers advertise in the
	// preliminary transfer reply: 150 Opening BINARY mode data connection for x (4096 bytes)
	sizeHintRegex = regexp.MustCompile(`\((\d+)\s+bytes?\)`)
)

// parsePASV parses a PASV reply and returns the data-channel address.
// Example: "227 Entering Passive Mode (192,168,1,1,195,149)"
// Returns: "192.168.1.1:50069" (195*256 + 149 = 50069)
func parsePASV(reply string) (string, error) {
	matches := pasvRegex.FindStringSubmatch(reply)
	if len(matches) != 7 {
		return "", fmt.Errorf("invalid PASV reply: %s", reply)
	}

	var h [4]int
	for i := range 4 {
		val, err := strconv.Atoi(matches[i+1])
		if err != nil || val < 0 || val > 255 {
			return "", fmt.Errorf("invalid PASV IP part: %s", matches[i+1])
		}
		h[i] = val
	}
	host := fmt.Sprintf("%d.%d.%d.%d", h[0], h[1], h[2], h[3])
	if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("invalid IPv4 address from PASV: %s", host)
	}

	p1, err1 := strconv.Atoi(matches[5])
	p2, err2 := strconv.Atoi(matches[6])
	if err1 != nil || err2 != nil || p1 < 0 || p1 > 255 || p2 < 0 || p2 > 255 {
		return "", fmt.Errorf("invalid PASV port parts: %s, %s", matches[5], matches[6])
	}
	port := p1*256 + p2

	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// parseEPSV parses an EPSV reply and returns the port.
// Example: "229 Entering Extended Passive Mode (|||6446|)"
// Returns: "6446"
func parseEPSV(reply string) (string, error) {
	matches := epsvRegex.FindStringSubmatch(reply)
	if len(matches) != 2 {
		return "", fmt.Errorf("invalid EPSV reply: %s", reply)
	}

	port, err := strconv.Atoi(matches[1])
	if err != nil || port < 0 || port > 65535 {
		return "", fmt.Errorf("invalid EPSV port: %s", matches[1])
	}

	return matches[1], nil
}

// resolveDataAddr fixes up the data-channel address from a PASV reply.
// Servers behind NAT often report 0.0.0.0; substitute the control host.
func resolveDataAddr(pasvAddr, controlHost string) string {
	host, port, err := net.SplitHostPort(pasvAddr)
	if err != nil {
		return pasvAddr
	}

	if host == "0.0.0.0" {
		return net.JoinHostPort(controlHost, port)
	}

	return pasvAddr
}

// parseSizeHint extracts the advertised byte count from a preliminary
// reply, or -1 when the server did not include one.
func parseSizeHint(message string) int64 {
	matches := sizeHintRegex.FindStringSubmatch(message)
	if len(matches) != 2 {
		return -1
	}

	n, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// openDataConn negotiates a passive data channel and opens the secondary
// stream to the address the server returned. EPSV is tried first and PASV
// is the fallback; a 502 on EPSV disables it for the rest of the session.
//
// A dial failure is a DataChannelError: the control connection is still
// synchronized and the caller may retry the transfer.
func (c *Client) openDataConn() (net.Conn, error) {
	if !c.passive {
		return nil, ErrActiveModeUnsupported
	}

	var addr string

	if !c.disableEPSV {
		reply, err := c.ctrl.cmd("EPSV")
		if err != nil {
			return nil, err
		}
		c.lastReply = reply

		switch {
		case reply.Code == 502:
			// Not implemented; stop asking.
			c.disableEPSV = true
		case reply.Is2xx():
			port, parseErr := parseEPSV(reply.String())
			if parseErr == nil {
				// EPSV only reports a port; reuse the control host.
				addr = net.JoinHostPort(c.cfg.Host, port)
			}
		}
	}

	if addr == "" {
		reply, err := c.ctrl.cmd("PASV")
		if err != nil {
			return nil, err
		}
		c.lastReply = reply

		if !reply.Is2xx() {
			return nil, &ProtocolError{
				Command: "PASV",
				Reply:   reply.Message,
				Code:    reply.Code,
			}
		}

		addr, err = parsePASV(reply.String())
		if err != nil {
			return nil, &DataChannelError{Op: "pasv", Err: err}
		}

		addr = resolveDataAddr(addr, c.cfg.Host)
	}

	c.logger.Debug("opening data channel", "addr", addr)

	conn, err := c.dialer.Dial("tcp", addr)
	if err != nil {
		return nil, &DataChannelError{Op: "dial", Addr: addr, Err: err}
	}

	return &deadlineConn{Conn: conn, timeout: c.cfg.Timeout}, nil
}

// beginTransfer claims the session's single transfer slot. The state
// check shares the lock so a concurrent Close cannot slip between the
// guard and the claim.
func (c *Client) beginTransfer() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateAuthenticated:
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotAuthenticated
	}

	if c.transferring {
		return ErrBusy
	}
	c.transferring = true
	return nil
}

// endTransfer releases the transfer slot.
func (c *Client) endTransfer() {
	c.mu.Lock()
	c.transferring = false
	c.dataConn = nil
	c.mu.Unlock()
}

// transfer runs one data-channel command end to end: TYPE if needed,
// passive negotiation, the transfer verb, the byte copy driven by run, and
// the reconciliation of the final control reply. run receives the open
// data channel and returns the payload byte count.
//
// The completion reply is consumed whether or not the byte copy succeeded;
// skipping it would desynchronize the control stream for every subsequent
// command.
func (c *Client) transfer(verb, remotePath string, mode Mode, run func(conn net.Conn) (int64, error)) (int64, error) {
	if err := c.beginTransfer(); err != nil {
		return 0, err
	}
	defer c.endTransfer()

	resumed := c.restOffset > 0
	c.restOffset = 0

	if err := c.setType(mode); err != nil {
		return 0, c.transferErr(err)
	}

	dataConn, err := c.openDataConn()
	if err != nil {
		return 0, c.transferErr(err)
	}

	// Track the connection so Close can abort a blocked copy.
	c.mu.Lock()
	c.dataConn = dataConn
	c.mu.Unlock()

	reply, err := c.ctrl.cmd(verb, remotePath)
	if err != nil {
		_ = dataConn.Close()
		return 0, c.transferErr(err)
	}
	c.lastReply = reply

	// A preliminary (1xx) reply opens the transfer; some servers send an
	// immediate 2xx for empty files. Anything else aborts before a single
	// payload byte moves, but the already-opened socket must still go.
	if reply.Class() != ClassPreliminary && !reply.Is2xx() {
		_ = dataConn.Close()
		return 0, &ProtocolError{
			Command: verb,
			Reply:   reply.Message,
			Code:    reply.Code,
		}
	}

	expected := parseSizeHint(reply.Message)

	n, copyErr := run(dataConn)

	// Close first: for uploads this is the EOF signal the server is
	// waiting on before it can issue the completion reply.
	closeErr := dataConn.Close()
	if copyErr == nil {
		copyErr = closeErr
	}

	final, err := c.ctrl.readReply(verb + " completion")
	if err != nil {
		return n, c.transferErr(err)
	}
	c.lastReply = final

	c.logger.Debug("ftp transfer finished", "verb", verb, "path", remotePath,
		"bytes", n, "code", final.Code)

	if copyErr != nil {
		if c.closedDuringTransfer() {
			// The copy failed because Close aborted the sockets.
			return n, ErrClosed
		}
		copyErr = asTimeout("data copy", copyErr)
		var te *TimeoutError
		if errors.As(copyErr, &te) {
			return n, c.fatalIfTimeout(copyErr)
		}
		return n, &TransferIncompleteError{
			Command:  verb,
			Path:     remotePath,
			Bytes:    n,
			Expected: expected,
			Code:     final.Code,
			Message:  final.Message,
			Err:      copyErr,
		}
	}

	if !final.Is2xx() {
		return n, &TransferIncompleteError{
			Command:  verb,
			Path:     remotePath,
			Bytes:    n,
			Expected: expected,
			Code:     final.Code,
			Message:  final.Message,
		}
	}

	// Downloads are checked against the advertised size: a data socket
	// that closed early looks like normal completion to the codec, and
	// only this comparison catches the truncation. Skipped for resumed
	// transfers, where the hint states the full file size.
	if verb == "RETR" && !resumed && expected >= 0 && n != expected {
		return n, &TransferIncompleteError{
			Command:  verb,
			Path:     remotePath,
			Bytes:    n,
			Expected: expected,
			Code:     final.Code,
			Message:  final.Message,
		}
	}

	return n, nil
}
