package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNoErrorOrResult  = errors.New("ledger: session has no error or result")
	ErrInterrupted      = errors.New("ledger: interrupted execution with no delegated store")
	ErrSessionReused    = errors.New("ledger: session already started")
	ErrNoRunningCommand = errors.New("ledger: exchange without a running command")
)

// MissingCommandInfoError reports a domain command that cannot be encoded
// because a required field is absent or malformed. It is raised before any
// I/O occurs.
type MissingCommandInfoError struct {
	Field string
}

func (e *MissingCommandInfoError) Error() string {
	return fmt.Sprintf("ledger: missing command info: %s", e.Field)
}

// UnexpectedResultError reports a response payload that does not match the
// running command's expectations. The raw payload is preserved for diagnosis.
type UnexpectedResultError struct {
	Data []byte
}

func (e *UnexpectedResultError) Error() string {
	return fmt.Sprintf("ledger: unexpected result: % X", e.Data)
}
