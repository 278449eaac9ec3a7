package ftp

import (
	"errors"
	"fmt"
)

// Sentinel errors for session-state guards. They are returned before any
// bytes are written to the control connection.
var (
	// ErrNotConnected is returned by operations that need an open control
	// connection while the session is still Disconnected.
	ErrNotConnected = errors.New("ftp: not connected")

	// ErrNotAuthenticated is returned by operations that require a
	// successful login while the session is merely connected.
	ErrNotAuthenticated = errors.New("ftp: not authenticated")

	// ErrClosed is returned by operations on a session that has been
	// closed. Closed is terminal; create a new client to reconnect.
	ErrClosed = errors.New("ftp: session closed")

	// ErrBusy is returned when a transfer is requested while another
	// transfer on the same session is still in flight.
	ErrBusy = errors.New("ftp: transfer already in progress")

	// ErrActiveModeUnsupported is returned when a transfer is attempted
	// with passive mode switched off. Active (PORT) data channels are
	// not implemented.
	ErrActiveModeUnsupported = errors.New("ftp: active mode is not supported")
)

// ConnectError reports a socket-level failure to reach the server.
type ConnectError struct {
	// Addr is the control-connection address that was dialed
	Addr string

	// Err is the underlying dial error
	Err error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("ftp: connect %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying dial error.
func (e *ConnectError) Unwrap() error { return e.Err }

// ProtocolError reports a violation of the FTP reply protocol, either a
// reply that could not be framed or a reply code outside what the command
// in flight allows. It keeps the full command/reply context for debugging.
type ProtocolError struct {
	// Command is the FTP command that was in flight (e.g., "STOR file.txt").
	// Empty for the greeting and for framing failures.
	Command string

	// Reply is the offending reply text, or the raw line when framing failed
	Reply string

	// Code is the numeric FTP reply code; zero when no code could be parsed
	Code int
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("ftp: malformed reply: %q", e.Reply)
	}
	if e.Command == "" {
		return fmt.Sprintf("ftp: unexpected reply: %s (code %d)", e.Reply, e.Code)
	}
	return fmt.Sprintf("ftp: %s failed: %s (code %d)", e.Command, e.Reply, e.Code)
}

// Is4xx returns true if the reply code is in the 4xx range (temporary failure).
func (e *ProtocolError) Is4xx() bool {
	return e.Code >= 400 && e.Code < 500
}

// Is5xx returns true if the reply code is in the 5xx range (permanent failure).
func (e *ProtocolError) Is5xx() bool {
	return e.Code >= 500 && e.Code < 600
}

// IsTemporary returns true if the error is a temporary failure (4xx).
// Callers can use this to implement retry policy; the client itself
// never retries.
func (e *ProtocolError) IsTemporary() bool {
	return e.Is4xx()
}

// IsPermanent returns true if the error is a permanent failure (5xx).
func (e *ProtocolError) IsPermanent() bool {
	return e.Is5xx()
}

// AuthenticationError reports a rejected login.
type AuthenticationError struct {
	// User is the username that was offered
	User string

	// Code is the reply code from USER or PASS
	Code int

	// Message is the server's reply text
	Message string
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("ftp: login as %q rejected: %s (code %d)", e.User, e.Message, e.Code)
}

// DataChannelError reports a failure to negotiate or open the secondary
// data connection. The control connection remains usable afterwards and
// the caller may retry the transfer.
type DataChannelError struct {
	// Op names the failing step ("epsv", "pasv", "dial")
	Op string

	// Addr is the data-channel address, when one was negotiated
	Addr string

	// Err is the underlying failure
	Err error
}

// Error implements the error interface.
func (e *DataChannelError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("ftp: data channel %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ftp: data channel %s %s: %v", e.Op, e.Addr, e.Err)
}

// Unwrap returns the underlying failure.
func (e *DataChannelError) Unwrap() error { return e.Err }

// TransferIncompleteError reports a disagreement between the data channel
// and the control channel about a transfer's outcome: a failed byte copy
// despite a clean completion reply, a negative completion reply despite a
// clean copy, or fewer bytes than the server advertised. The control
// stream itself is still synchronized (the completion reply was consumed).
type TransferIncompleteError struct {
	// Command is the transfer command ("RETR" or "STOR")
	Command string

	// Path is the remote path of the transfer
	Path string

	// Bytes is the number of payload bytes actually moved
	Bytes int64

	// Expected is the size advertised in the preliminary reply, or -1
	Expected int64

	// Code and Message carry the final control reply, when one was read
	Code    int
	Message string

	// Err is the data-channel copy error, if the copy itself failed
	Err error
}

// Error implements the error interface.
func (e *TransferIncompleteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("ftp: %s %s incomplete after %d bytes: %v", e.Command, e.Path, e.Bytes, e.Err)
	case e.Expected >= 0 && e.Bytes != e.Expected:
		return fmt.Sprintf("ftp: %s %s incomplete: got %d of %d bytes (server said %q, code %d)",
			e.Command, e.Path, e.Bytes, e.Expected, e.Message, e.Code)
	default:
		return fmt.Sprintf("ftp: %s %s incomplete: server reported %q (code %d) after %d bytes",
			e.Command, e.Path, e.Message, e.Code, e.Bytes)
	}
}

// Unwrap returns the data-channel copy error, if any.
func (e *TransferIncompleteError) Unwrap() error { return e.Err }

// TimeoutError reports a blocking operation that exceeded its deadline.
// A timeout on the control connection leaves the reply stream in an
// unknown position, so the session is forced to Closed.
type TimeoutError struct {
	// Op names the operation that timed out (e.g., "PWD", "data read")
	Op string

	// Err is the underlying network timeout
	Err error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("ftp: %s timed out: %v", e.Op, e.Err)
}

// Unwrap returns the underlying network timeout.
func (e *TimeoutError) Unwrap() error { return e.Err }

// Timeout reports true so that callers checking net.Error-style timeout
// semantics keep working across the wrapper.
func (e *TimeoutError) Timeout() bool { return true }
