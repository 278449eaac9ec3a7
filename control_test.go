package ftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClose_SendsQuit(t *testing.T) {
	srv := newMockServer(t)

	c, err := NewClient(srv.config())
	require.NoError(t, err)

	require.NoError(t, c.Connect())
	require.NoError(t, c.Close())

	assert.Equal(t, 1, srv.countCommands("QUIT"))
}

func TestClose_ReleasesWhenQuitFails(t *testing.T) {
	// The peer hangs up right after the greeting, so the QUIT exchange
	// cannot complete. Close must still release the socket and succeed.
	cfg := newOneShotServer(t, "220 hello\r\n")

	c, err := NewClient(cfg)
	require.NoError(t, err)

	require.NoError(t, c.Connect())
	require.NoError(t, c.Close())
	assert.Equal(t, StateClosed, c.State())
	assert.Nil(t, c.Conn())
}

func TestCommandWithIllegalCharacters(t *testing.T) {
	srv := newMockServer(t)

	c, err := NewClient(srv.config())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Connect())

	// CR/LF in arguments is an input error caught before any write.
	_, err = c.Quote("RETR", "evil\r\nDELE x")
	require.Error(t, err)
	assert.Equal(t, 0, srv.countCommands("RETR"))
	assert.Equal(t, 0, srv.countCommands("DELE"))
}
