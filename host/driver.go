// Package host owns the driver loop around a session interpreter.
//
// Ownership boundary:
// - transport suspension (write the frame, await the response)
// - the exchange loop until the interpreter reports no further frame
// - session metrics and debug logging
//
// The host never inspects protocol internals and never retries; whole-session
// replay is the caller's decision.
package host

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keyfrost/coldctl/internal/observability"
	"github.com/keyfrost/coldctl/ledger"
	"github.com/keyfrost/coldctl/ledger/apdu"
	"github.com/keyfrost/coldctl/session"
	"github.com/keyfrost/coldctl/transport"
)

// RunLedger instantiates Run for the ledger protocol.
func RunLedger(
	ctx context.Context,
	tr transport.Transport,
	itp *ledger.Interpreter,
	command ledger.Command,
) (ledger.Response, error) {
	return Run[ledger.Command, apdu.Command, ledger.Response](ctx, tr, itp, command)
}

// Run drives one command through one session: Start, zero or more exchange
// rounds, End. The first error ends the session; the interpreter must not be
// reused afterward.
func Run[C any, F session.Frame, R any](
	ctx context.Context,
	tr transport.Transport,
	itp session.Interpreter[C, F, R],
	command C,
) (R, error) {
	var zero R
	name := commandName(command)
	started := time.Now()

	frame, err := itp.Start(command)
	if err != nil {
		observability.RecordSession(name, "error", 0, time.Since(started))
		return zero, fmt.Errorf("start %s: %w", name, err)
	}
	log.Debug().Str("command", name).Msg("host: session started")

	rounds := 0
	for {
		raw, err := frame.Encode()
		if err != nil {
			observability.RecordSession(name, "error", rounds, time.Since(started))
			return zero, fmt.Errorf("encode frame for %s: %w", name, err)
		}
		if err := tr.Write(ctx, raw); err != nil {
			observability.RecordSession(name, "error", rounds, time.Since(started))
			return zero, fmt.Errorf("write frame for %s: %w", name, err)
		}
		response, err := tr.Read(ctx)
		if err != nil {
			observability.RecordSession(name, "error", rounds, time.Since(started))
			return zero, fmt.Errorf("read response for %s: %w", name, err)
		}
		rounds++

		next, more, err := itp.Exchange(response)
		if err != nil {
			observability.RecordSession(name, "error", rounds, time.Since(started))
			return zero, fmt.Errorf("exchange for %s: %w", name, err)
		}
		if !more {
			break
		}
		observability.RecordContinuation(name)
		log.Debug().Str("command", name).Int("round", rounds).Msg("host: continuation")
		frame = next
	}

	result, err := itp.End()
	if err != nil {
		observability.RecordSession(name, "error", rounds, time.Since(started))
		return zero, fmt.Errorf("end %s: %w", name, err)
	}
	observability.RecordSession(name, "success", rounds, time.Since(started))
	log.Debug().Str("command", name).Int("rounds", rounds).Msg("host: session finished")
	return result, nil
}

// commandName is the metrics/log label for a command value, e.g. "OpenApp".
func commandName(command any) string {
	name := fmt.Sprintf("%T", command)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, "*")
}
