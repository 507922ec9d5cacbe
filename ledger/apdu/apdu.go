// Package apdu owns the device frame codec.
//
// Ownership boundary:
// - command frame encoding (CLA|INS|P1|P2|Lc|payload)
// - response frame decoding (payload + big-endian status word)
// - the known status word table
package apdu

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxPayloadLen is the largest payload a single command frame carries; the
// length field on the wire is one byte.
const MaxPayloadLen = 255

// StatusWordLen is the trailing status word width of every response.
const StatusWordLen = 2

var (
	ErrTruncatedResponse = errors.New("apdu: response shorter than status word")
	ErrPayloadTooLarge   = errors.New("apdu: payload exceeds one-byte length field")
)

// StatusWord is the raw 2-byte code ending every response. Unrecognized codes
// keep their raw value; nothing is lost on decode.
type StatusWord uint16

const (
	SWOK                   StatusWord = 0x9000
	SWInterruptedExecution StatusWord = 0xE000
	SWDeny                 StatusWord = 0x6985
	SWIncorrectData        StatusWord = 0x6A80
	SWWrongP1P2            StatusWord = 0x6A86
	SWWrongDataLength      StatusWord = 0x6A87
	SWInsNotSupported      StatusWord = 0x6D00
	SWClaNotSupported      StatusWord = 0x6E00
	SWBadState             StatusWord = 0xB007
)

var statusWordNames = map[StatusWord]string{
	SWOK:                   "ok",
	SWInterruptedExecution: "interrupted_execution",
	SWDeny:                 "deny",
	SWIncorrectData:        "incorrect_data",
	SWWrongP1P2:            "wrong_p1p2",
	SWWrongDataLength:      "wrong_data_length",
	SWInsNotSupported:      "ins_not_supported",
	SWClaNotSupported:      "cla_not_supported",
	SWBadState:             "bad_state",
}

// Known reports whether the code is in the documented status word table.
func (sw StatusWord) Known() bool {
	_, ok := statusWordNames[sw]
	return ok
}

func (sw StatusWord) String() string {
	if name, ok := statusWordNames[sw]; ok {
		return fmt.Sprintf("%s (0x%04X)", name, uint16(sw))
	}
	return fmt.Sprintf("device_status (0x%04X)", uint16(sw))
}

// Command is one outgoing frame. Immutable once built; Data is not copied,
// callers hand over ownership.
type Command struct {
	Cla  byte
	Ins  byte
	P1   byte
	P2   byte
	Data []byte
}

// Encode serializes the frame as CLA|INS|P1|P2|Lc|payload.
func (c Command) Encode() ([]byte, error) {
	if len(c.Data) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(c.Data))
	}
	buf := make([]byte, 0, 5+len(c.Data))
	buf = append(buf, c.Cla, c.Ins, c.P1, c.P2, byte(len(c.Data)))
	buf = append(buf, c.Data...)
	return buf, nil
}

// Response is one decoded incoming frame.
type Response struct {
	Data []byte
	SW   StatusWord
}

// ParseResponse splits raw response bytes into payload and status word. The
// final two bytes are the big-endian status word; anything shorter is
// malformed.
func ParseResponse(raw []byte) (Response, error) {
	if len(raw) < StatusWordLen {
		return Response{}, fmt.Errorf("%w: %d bytes", ErrTruncatedResponse, len(raw))
	}
	cut := len(raw) - StatusWordLen
	data := make([]byte, cut)
	copy(data, raw[:cut])
	return Response{
		Data: data,
		SW:   StatusWord(binary.BigEndian.Uint16(raw[cut:])),
	}, nil
}
