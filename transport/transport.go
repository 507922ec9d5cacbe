// Package transport owns the duplex byte channel contract to a device.
//
// Ownership boundary:
// - the Write/Read channel shape the host driver suspends on
// - the device-unavailable sentinel
//
// Implementations frame bytes for a concrete link (TCP emulator, USB HID,
// BLE); the session core never sees the link.
package transport

import (
	"context"
	"errors"
)

// ErrDeviceUnavailable reports the out-of-band loss of the device: unplug,
// connection close, or end of session from the far side.
var ErrDeviceUnavailable = errors.New("transport: device unavailable")

// Transport is an asynchronous duplex byte channel to one device. Write sends
// one complete command frame; Read blocks for one complete response. Both
// honor context cancellation; neither is safe for concurrent use.
type Transport interface {
	Write(ctx context.Context, frame []byte) error
	Read(ctx context.Context) ([]byte, error)
}
