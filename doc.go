// Package ftp implements a minimal FTP client session engine: the control
// connection state machine, command/reply framing, and passive-mode data
// transfers.
//
// # Overview
//
// A Client is built from a Config record and driven through an explicit
// lifecycle:
//
//	Disconnected -> Connected -> Authenticated -> Closed
//
// Connect opens the control connection and consumes the 220 greeting;
// Login runs the USER/PASS exchange; Close sends a best-effort QUIT and
// releases the socket from any state. EnsureReady performs
// connect-plus-login as one idempotent step for callers that just want a
// usable session.
//
// # Basic Usage
//
//	client, err := ftp.NewClient(ftp.Config{
//	    Host:     "ftp.example.com",
//	    User:     "user",
//	    Password: "secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.EnsureReady(); err != nil {
//	    log.Fatal(err)
//	}
//
//	dir, err := client.Pwd()
//
// # File Transfers
//
// Transfers are passive-mode only (EPSV with PASV fallback) and run one at
// a time per session; a second Get or Put while one is streaming fails
// fast with ErrBusy. Get and Put return the payload byte count alongside
// any error:
//
//	f, err := os.Create("local.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	n, err := client.Get("remote.bin", f, ftp.ModeBinary)
//
// Interrupted downloads can be resumed with GetAt, which places a REST
// marker before the RETR.
//
// # Error Handling
//
// Failures are reported as typed errors: ConnectError, ProtocolError,
// AuthenticationError, DataChannelError, TransferIncompleteError and
// TimeoutError carry structured context, while state guards return the
// sentinels ErrNotConnected, ErrNotAuthenticated, ErrBusy and ErrClosed.
// A TransferIncompleteError means the control and data channels disagreed
// about a transfer's outcome: the byte copy looked complete but the
// completion reply was negative, or the data socket closed short of the
// size the server advertised.
//
//	var incomplete *ftp.TransferIncompleteError
//	if errors.As(err, &incomplete) {
//	    fmt.Printf("got %d of %d bytes\n", incomplete.Bytes, incomplete.Expected)
//	}
//
// The client never retries on its own; retry and backoff policy belong to
// the caller. A timeout on any blocking operation closes the session,
// because a control stream abandoned mid-exchange cannot be trusted for
// further commands.
//
// # Concurrency
//
// One session is meant to be driven by one goroutine at a time. Callers
// that share a Client across goroutines must serialize access; the
// protocol is half-duplex request/reply and offers no useful parallelism
// on a single connection. The one cross-goroutine operation supported is
// Close: calling it while a transfer is streaming aborts both sockets and
// the blocked Get or Put returns ErrClosed.
package ftp
