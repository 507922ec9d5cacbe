package apdu

import (
	"bytes"
	"errors"
	"testing"
)

func TestCommandEncodeLayout(t *testing.T) {
	cmd := Command{Cla: 0xE1, Ins: 0x05, P1: 0x01, P2: 0x02, Data: []byte{0xAA, 0xBB}}
	got, err := cmd.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0xE1, 0x05, 0x01, 0x02, 0x02, 0xAA, 0xBB}
	if !bytes.Equal(got, want) {
		t.Fatalf("frame mismatch: got=% X want=% X", got, want)
	}
}

func TestCommandEncodeEmptyPayload(t *testing.T) {
	got, err := Command{Cla: 0xE1, Ins: 0x05}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0xE1, 0x05, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("frame mismatch: got=% X want=% X", got, want)
	}
}

func TestCommandEncodePayloadTooLarge(t *testing.T) {
	_, err := Command{Cla: 0xE1, Ins: 0x00, Data: make([]byte, MaxPayloadLen+1)}.Encode()
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestParseResponseSplitsStatusWord(t *testing.T) {
	res, err := ParseResponse([]byte{0xAA, 0xBB, 0xCC, 0xDD, 0x90, 0x00})
	if err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if res.SW != SWOK {
		t.Fatalf("unexpected status word: %v", res.SW)
	}
	if !bytes.Equal(res.Data, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Fatalf("payload mismatch: % X", res.Data)
	}
}

func TestParseResponseStatusWordOnly(t *testing.T) {
	res, err := ParseResponse([]byte{0xE0, 0x00})
	if err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if res.SW != SWInterruptedExecution {
		t.Fatalf("unexpected status word: %v", res.SW)
	}
	if len(res.Data) != 0 {
		t.Fatalf("expected empty payload, got % X", res.Data)
	}
}

func TestParseResponseTruncated(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, {0x90}} {
		_, err := ParseResponse(raw)
		if !errors.Is(err, ErrTruncatedResponse) {
			t.Fatalf("expected ErrTruncatedResponse for % X, got %v", raw, err)
		}
	}
}

func TestUnknownStatusWordKeepsRawCode(t *testing.T) {
	res, err := ParseResponse([]byte{0x6F, 0x42})
	if err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if res.SW.Known() {
		t.Fatalf("0x6F42 should not be a known status word")
	}
	if uint16(res.SW) != 0x6F42 {
		t.Fatalf("raw code lost: got 0x%04X", uint16(res.SW))
	}
}

func TestKnownStatusWords(t *testing.T) {
	for _, sw := range []StatusWord{SWOK, SWInterruptedExecution, SWClaNotSupported} {
		if !sw.Known() {
			t.Fatalf("%v should be known", sw)
		}
	}
}
