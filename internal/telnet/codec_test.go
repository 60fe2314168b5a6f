package telnet

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipePair returns a codec wrapping one end of an in-memory connection
// and the raw other end.
func pipePair(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return NewConn(server), client
}

func TestReadMessage_StripsLineEndings(t *testing.T) {
	conn, raw := pipePair(t)

	go raw.Write([]byte("look\r\nnorth\n"))

	msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "look", msg)

	msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "north", msg)
}

func TestReadMessage_StripsIAC(t *testing.T) {
	conn, raw := pipePair(t)

	// IAC DO opt, then a normal line, then IAC SB ... IAC SE mid-line.
	go raw.Write([]byte{255, 253, 1, 'h', 'i', 255, 250, 31, 0, 80, 255, 240, '!', '\r', '\n'})

	msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "hi!", msg)
}

func TestReadMessage_TooLong(t *testing.T) {
	conn, raw := pipePair(t)

	go raw.Write([]byte(strings.Repeat("a", MaxMessageSize+1) + "\r\n"))

	_, err := conn.ReadMessage()
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestWriteMessage_AppendsCRLF(t *testing.T) {
	conn, raw := pipePair(t)

	done := make(chan error, 1)
	go func() {
		done <- conn.WriteMessage("Welcome")
	}()

	buf := make([]byte, 64)
	n, err := raw.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "Welcome\r\n", string(buf[:n]))
	require.NoError(t, <-done)
}
