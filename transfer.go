package ftp

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
)

// effectiveMode resolves a per-call mode against the configured default.
func (c *Client) effectiveMode(mode Mode) Mode {
	if mode == "" {
		return c.cfg.Mode
	}
	return mode
}

// setType issues TYPE for the requested mode, skipping the command when
// the connection is already in that mode.
func (c *Client) setType(mode Mode) error {
	mode = c.effectiveMode(mode)
	if c.currentType == mode {
		c.logger.Debug("transfer type already set, skipping TYPE command", "type", string(mode))
		return nil
	}

	reply, err := c.ctrl.expectCode(200, "TYPE", string(mode))
	if err != nil {
		return err
	}
	c.lastReply = reply

	c.currentType = mode
	return nil
}

// Get downloads the remote file into dst and returns the number of payload
// bytes written. A zero-length remote file yields (0, nil). mode may be
// empty to use the configured default.
//
// Example:
//
//	f, err := os.Create("local.bin")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	n, err := client.Get("remote.bin", f, ftp.ModeBinary)
func (c *Client) Get(remotePath string, dst io.Writer, mode Mode) (int64, error) {
	return c.transfer("RETR", remotePath, mode, func(conn net.Conn) (int64, error) {
		return io.Copy(dst, conn)
	})
}

// GetAt downloads the remote file starting at the given byte offset,
// resuming an interrupted download into dst.
func (c *Client) GetAt(remotePath string, dst io.Writer, mode Mode, offset int64) (int64, error) {
	if offset > 0 {
		// TYPE must precede REST so the marker applies to the mode the
		// transfer will actually run in.
		if err := c.checkedSetType(mode); err != nil {
			return 0, err
		}
		if err := c.RestartAt(offset); err != nil {
			return 0, err
		}
	}

	return c.Get(remotePath, dst, mode)
}

// checkedSetType is setType behind the authentication guard, for callers
// outside the transfer path.
func (c *Client) checkedSetType(mode Mode) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if err := c.setType(mode); err != nil {
		return c.fatalIfTimeout(err)
	}
	return nil
}

// Put uploads src to the remote path and returns the number of payload
// bytes sent. Uploading an empty reader creates a zero-length remote file.
// mode may be empty to use the configured default.
//
// Example:
//
//	f, err := os.Open("local.bin")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	n, err := client.Put(f, "remote.bin", ftp.ModeBinary)
func (c *Client) Put(src io.Reader, remotePath string, mode Mode) (int64, error) {
	return c.transfer("STOR", remotePath, mode, func(conn net.Conn) (int64, error) {
		return io.Copy(conn, src)
	})
}

// PutAt uploads src to the remote path starting at the given byte offset
// via a REST marker. Servers that do not support REST+STOR reject the
// marker with a ProtocolError before any data moves.
func (c *Client) PutAt(src io.Reader, remotePath string, mode Mode, offset int64) (int64, error) {
	if offset > 0 {
		if err := c.checkedSetType(mode); err != nil {
			return 0, err
		}
		if err := c.RestartAt(offset); err != nil {
			return 0, err
		}
	}

	return c.Put(src, remotePath, mode)
}

// RestartAt sends a REST marker so the next transfer starts at the given
// byte offset. The marker applies only to the immediately following RETR
// or STOR.
func (c *Client) RestartAt(offset int64) error {
	if err := c.requireAuth(); err != nil {
		return err
	}

	reply, err := c.ctrl.cmd("REST", strconv.FormatInt(offset, 10))
	if err != nil {
		return c.fatalIfTimeout(err)
	}
	c.lastReply = reply

	// 350: file action pending further information.
	if reply.Code != 350 {
		return &ProtocolError{
			Command: "REST",
			Reply:   reply.Message,
			Code:    reply.Code,
		}
	}

	c.restOffset = offset
	return nil
}

// GetFile downloads a remote file to a local path, creating or truncating
// the local file. The partial file is removed when the download fails.
func (c *Client) GetFile(remotePath, localPath string, mode Mode) (int64, error) {
	f, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create local file: %w", err)
	}

	n, err := c.Get(remotePath, f, mode)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(localPath)
		return n, err
	}
	if closeErr != nil {
		_ = os.Remove(localPath)
		return n, fmt.Errorf("failed to write local file: %w", closeErr)
	}

	return n, nil
}

// PutFile uploads a local file to a remote path.
func (c *Client) PutFile(localPath, remotePath string, mode Mode) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	return c.Put(f, remotePath, mode)
}
