// Package session owns the device-agnostic session contract.
//
// Ownership boundary:
// - the outgoing frame shape (anything that encodes to bytes)
// - the three-call interpreter lifecycle an external driver runs
//
// An interpreter is parametric over its command, frame and result types so
// one driver loop serves different device protocol encodings.
package session

// Frame is one outgoing wire unit.
type Frame interface {
	Encode() ([]byte, error)
}

// Interpreter is a resumable, synchronous session over an opaque duplex
// channel. The driver transmits the frame from Start, then feeds every raw
// response to Exchange, transmitting the returned frame while more is true.
// When more is false the session is finished and End yields the result.
//
// Interpreters perform no I/O and are single-owner: one session per instance,
// not reusable after an error.
type Interpreter[C any, F Frame, R any] interface {
	Start(command C) (F, error)
	Exchange(response []byte) (next F, more bool, err error)
	End() (R, error)
}
