package ftp

import (
	"net"
	"strconv"
	"time"
)

// Mode selects the representation type for transfers.
type Mode string

const (
	// ModeBinary is TYPE I, the image type. Bytes arrive exactly as stored.
	ModeBinary Mode = "I"

	// ModeASCII is TYPE A. The server may rewrite line endings in transit.
	ModeASCII Mode = "A"
)

// Defaults applied by Config.withDefaults for unset fields.
const (
	DefaultPort    = 21
	DefaultTimeout = 90 * time.Second
)

// Config is the configuration record a client is built from. It is
// typically filled in by an external collaborator (a config file loader, a
// CLI); the client only reads it. Unset fields take the documented
// defaults.
type Config struct {
	// Host is the server to connect to. Required.
	Host string

	// Port is the control-connection port. Zero means 21.
	Port int

	// User is the username for login. When empty, EnsureReady skips the
	// login step entirely instead of attempting an anonymous exchange.
	User string

	// Password is the password sent with PASS.
	Password string

	// Timeout bounds every blocking socket operation, control and data.
	// Zero means 90 seconds.
	Timeout time.Duration

	// Mode is the default transfer mode. Empty means binary.
	Mode Mode

	// DisablePassive starts the session with the passive flag off.
	// Transfers fail with ErrActiveModeUnsupported until SetPassive(true),
	// since active-mode data channels are not implemented.
	DisablePassive bool

	// StayOnLoginFailure keeps the control connection open in the
	// Connected state after a rejected login, so the caller can retry
	// with other credentials. When false (the default), a login failure
	// closes the session.
	StayOnLoginFailure bool
}

// withDefaults returns a copy with unset fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Mode == "" {
		c.Mode = ModeBinary
	}
	return c
}

// addr returns the control-connection dial address.
func (c Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
