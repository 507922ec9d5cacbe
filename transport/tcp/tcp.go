// Package tcp frames device exchanges over a TCP connection, speaking the
// wire format of the common device emulators: a 4-byte big-endian length
// before the command, and length | data | 2-byte status word coming back.
package tcp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/keyfrost/coldctl/transport"
)

// maxResponseLen bounds response allocation; no device frame comes close.
const maxResponseLen = 64 * 1024

var ErrResponseTooLarge = errors.New("tcp: response length exceeds limit")

// Channel is a Transport over one TCP connection.
type Channel struct {
	conn net.Conn
}

var _ transport.Transport = (*Channel)(nil)

// Dial connects to a device emulator at addr.
func Dial(addr string) (*Channel, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrDeviceUnavailable, err)
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Channel {
	return &Channel{conn: conn}
}

func (c *Channel) Close() error {
	return c.conn.Close()
}

// Write sends one command frame, length-prefixed.
func (c *Channel) Write(ctx context.Context, frame []byte) error {
	if err := c.applyDeadline(ctx); err != nil {
		return err
	}
	buf := make([]byte, 0, 4+len(frame))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(frame)))
	buf = append(buf, frame...)
	if _, err := c.conn.Write(buf); err != nil {
		return wrapConnErr(err)
	}
	return nil
}

// Read blocks for one response: the advertised data length, the data, and the
// trailing 2-byte status word. The returned bytes are data followed by the
// status word, ready for the frame codec.
func (c *Channel) Read(ctx context.Context) ([]byte, error) {
	if err := c.applyDeadline(ctx); err != nil {
		return nil, err
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.conn, lenBuf[:]); err != nil {
		return nil, wrapConnErr(err)
	}
	dataLen := binary.BigEndian.Uint32(lenBuf[:])
	if dataLen > maxResponseLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrResponseTooLarge, dataLen)
	}
	raw := make([]byte, dataLen+2)
	if _, err := io.ReadFull(c.conn, raw); err != nil {
		return nil, wrapConnErr(err)
	}
	return raw, nil
}

// applyDeadline maps the context deadline onto the connection so blocked
// reads and writes unblock when the driver gives up.
func (c *Channel) applyDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		return c.conn.SetDeadline(deadline)
	}
	return c.conn.SetDeadline(time.Time{})
}

func wrapConnErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %v", transport.ErrDeviceUnavailable, err)
	}
	return err
}
