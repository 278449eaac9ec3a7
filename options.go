package ftp

import (
	"log/slog"
	"net"
	"time"
)

// Option is a functional option for configuring a client beyond the
// Config record.
type Option func(*Client) error

// WithLogger enables debug logging using the provided logger.
// Every command, reply and transfer completion is logged at debug level.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	client, _ := ftp.NewClient(cfg, ftp.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithDialer sets a custom net.Dialer for establishing connections.
// This can be used to configure source addresses, keep-alive settings, etc.
// The dialer's Timeout is overwritten with the session timeout.
func WithDialer(dialer *net.Dialer) Option {
	return func(c *Client) error {
		c.dialer = dialer
		return nil
	}
}

// WithTimeout overrides the configured timeout for every blocking socket
// operation, control and data.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.cfg.Timeout = timeout
		return nil
	}
}

// WithDisableEPSV disables the EPSV command, forcing PASV for every
// passive negotiation. Useful for servers that advertise EPSV but sit
// behind firewalls that break it.
func WithDisableEPSV() Option {
	return func(c *Client) error {
		c.disableEPSV = true
		return nil
	}
}
