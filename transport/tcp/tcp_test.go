package tcp

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/keyfrost/coldctl/internal/testutil/testlog"
	"github.com/keyfrost/coldctl/transport"
)

// fakeDevice answers one framed command on the far end of a pipe.
func fakeDevice(t *testing.T, conn net.Conn, wantFrame []byte, data []byte, sw uint16) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		defer close(done)
		var lenBuf [4]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			done <- err
			return
		}
		frame := make([]byte, binary.BigEndian.Uint32(lenBuf[:]))
		if _, err := io.ReadFull(conn, frame); err != nil {
			done <- err
			return
		}
		if !bytes.Equal(frame, wantFrame) {
			done <- errors.New("frame mismatch")
			return
		}
		out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
		out = append(out, data...)
		out = binary.BigEndian.AppendUint16(out, sw)
		_, err := conn.Write(out)
		done <- err
	}()
	return done
}

func TestChannelRoundTrip(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	frame := []byte{0xE1, 0x05, 0x00, 0x00, 0x00}
	done := fakeDevice(t, server, frame, []byte{0xAA, 0xBB, 0xCC, 0xDD}, 0x9000)

	ch := New(client)
	ctx := context.Background()
	if err := ch.Write(ctx, frame); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := ch.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0x90, 0x00}
	if !bytes.Equal(raw, want) {
		t.Fatalf("response mismatch: got=% X want=% X", raw, want)
	}
	if err := <-done; err != nil {
		t.Fatalf("device side: %v", err)
	}
}

func TestChannelReadMapsEOFToDeviceUnavailable(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		// Half a length prefix, then hang up mid frame.
		server.Write([]byte{0x00, 0x00})
		server.Close()
	}()

	ch := New(client)
	_, err := ch.Read(context.Background())
	if !errors.Is(err, transport.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestChannelReadRejectsOversizedResponse(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], maxResponseLen+1)
		server.Write(lenBuf[:])
	}()

	ch := New(client)
	_, err := ch.Read(context.Background())
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("expected ErrResponseTooLarge, got %v", err)
	}
}

func TestChannelHonorsContextDeadline(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(20*time.Millisecond))
	defer cancel()

	ch := New(client)
	if _, err := ch.Read(ctx); err == nil {
		t.Fatal("expected deadline error reading from a silent device")
	}
}

func TestChannelCancelledContextShortCircuits(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := New(client)
	if err := ch.Write(ctx, []byte{0x01}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
