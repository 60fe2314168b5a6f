// Package telnet frames the line-oriented wire protocol. One frame is
// one UTF-8 line of at most MaxMessageSize bytes; outbound lines are
// terminated with \r\n. Inline IAC negotiation sequences from the client
// are stripped rather than answered.
package telnet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// MaxMessageSize bounds a single inbound frame.
const MaxMessageSize = 1024

// ErrMessageTooLong is returned when a client line exceeds MaxMessageSize.
var ErrMessageTooLong = errors.New("telnet: message exceeds maximum frame size")

// Telnet command bytes.
const (
	iacByte = 255 // interpret as command
	sbByte  = 250 // subnegotiation begin
	seByte  = 240 // subnegotiation end
	willMin = 251 // WILL/WONT/DO/DONT take one option byte
)

// Conn wraps a TCP connection with the line codec.
type Conn struct {
	conn net.Conn
	r    *bufio.Reader
}

// NewConn wraps c. The caller keeps ownership of closing c.
func NewConn(c net.Conn) *Conn {
	return &Conn{conn: c, r: bufio.NewReaderSize(c, MaxMessageSize)}
}

// ReadMessage reads one line from the client, stripping telnet control
// sequences and the trailing line ending.
func (c *Conn) ReadMessage() (string, error) {
	var sb strings.Builder
	for {
		b, err := c.r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("reading frame: %w", err)
		}

		switch b {
		case '\n':
			return strings.TrimRight(sb.String(), "\r"), nil
		case iacByte:
			if err := c.skipCommand(); err != nil {
				return "", fmt.Errorf("reading frame: %w", err)
			}
		default:
			if sb.Len() >= MaxMessageSize {
				return "", ErrMessageTooLong
			}
			sb.WriteByte(b)
		}
	}
}

// skipCommand consumes the remainder of an IAC sequence.
func (c *Conn) skipCommand() error {
	cmd, err := c.r.ReadByte()
	if err != nil {
		return err
	}
	switch {
	case cmd == sbByte:
		// Consume subnegotiation until IAC SE.
		for {
			b, err := c.r.ReadByte()
			if err != nil {
				return err
			}
			if b != iacByte {
				continue
			}
			next, err := c.r.ReadByte()
			if err != nil {
				return err
			}
			if next == seByte {
				return nil
			}
		}
	case cmd >= willMin:
		// WILL/WONT/DO/DONT carry a single option byte.
		_, err := c.r.ReadByte()
		return err
	default:
		return nil
	}
}

// WriteMessage sends one line to the client with a \r\n ending.
func (c *Conn) WriteMessage(msg string) error {
	if _, err := io.WriteString(c.conn, msg+"\r\n"); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the peer address for logging.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
