package ledger

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"

	"github.com/keyfrost/coldctl/ledger/apdu"
	"github.com/keyfrost/coldctl/ledger/store"
	"github.com/keyfrost/coldctl/session"
)

var _ session.Interpreter[Command, apdu.Command, Response] = (*Interpreter)(nil)

type sessionState int

const (
	stateNew sessionState = iota
	stateRunning
	stateFinished
)

// Interpreter drives one device session: Start encodes the first frame,
// Exchange consumes response bytes (answering mid-command data pulls through
// the delegated store) until the command finishes, End yields the result.
//
// The interpreter performs no I/O and no locking. Exactly one session per
// instance; it must not be reused after an error or after End.
type Interpreter struct {
	state    sessionState
	command  Command
	store    *store.Store
	result   Response
	consumed bool
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Start converts the domain command into the first command frame and moves
// the session to Running. A command missing required fields fails here,
// before any I/O, and leaves the session untouched.
func (it *Interpreter) Start(command Command) (apdu.Command, error) {
	if it.state != stateNew {
		return apdu.Command{}, ErrSessionReused
	}

	var (
		frame apdu.Command
		st    *store.Store
		err   error
	)
	switch cmd := command.(type) {
	case OpenApp:
		if cmd.Network == nil {
			return apdu.Command{}, &MissingCommandInfoError{Field: "network"}
		}
		frame = openApp(cmd.Network)
	case GetMasterFingerprint:
		frame = getMasterFingerprint()
	case GetXpub:
		if len(cmd.Path) == 0 {
			return apdu.Command{}, &MissingCommandInfoError{Field: "path"}
		}
		frame, err = getExtendedPubkey(cmd.Path, cmd.Display)
		if err != nil {
			return apdu.Command{}, err
		}
	case RegisterWallet:
		if cmd.Policy == nil {
			return apdu.Command{}, &MissingCommandInfoError{Field: "policy"}
		}
		frame, err = registerWallet(cmd.Policy)
		if err != nil {
			return apdu.Command{}, err
		}
		st, err = cmd.Policy.Store()
		if err != nil {
			return apdu.Command{}, err
		}
	case GetWalletAddress:
		if cmd.Policy == nil {
			return apdu.Command{}, &MissingCommandInfoError{Field: "policy"}
		}
		frame, err = getWalletAddress(cmd)
		if err != nil {
			return apdu.Command{}, err
		}
		st, err = cmd.Policy.Store()
		if err != nil {
			return apdu.Command{}, err
		}
	default:
		return apdu.Command{}, &MissingCommandInfoError{Field: "command"}
	}

	it.state = stateRunning
	it.command = command
	it.store = st
	return frame, nil
}

// Exchange decodes one response frame. While the device keeps interrupting
// for more data the session stays Running and the returned frame (more=true)
// must be transmitted next. Once the response decodes as the command's
// result, the session is Finished and more is false.
//
// A decode failure never advances session state.
func (it *Interpreter) Exchange(data []byte) (next apdu.Command, more bool, err error) {
	if it.state != stateRunning {
		return apdu.Command{}, false, ErrNoRunningCommand
	}

	res, err := apdu.ParseResponse(data)
	if err != nil {
		return apdu.Command{}, false, err
	}

	if res.SW == apdu.SWInterruptedExecution {
		if it.store == nil {
			return apdu.Command{}, false, ErrInterrupted
		}
		cont, err := it.store.Execute(res.Data)
		if err != nil {
			return apdu.Command{}, false, fmt.Errorf("delegated store: %w", err)
		}
		return continueInterrupted(cont), true, nil
	}

	switch cmd := it.command.(type) {
	case GetMasterFingerprint:
		if res.SW != apdu.SWOK || len(res.Data) < 4 {
			return apdu.Command{}, false, &UnexpectedResultError{Data: res.Data}
		}
		var fp [4]byte
		copy(fp[:], res.Data[:4])
		it.finish(MasterFingerprint{Fingerprint: fp})
	case GetXpub:
		if res.SW != apdu.SWOK {
			return apdu.Command{}, false, &UnexpectedResultError{Data: res.Data}
		}
		key, parseErr := hdkeychain.NewKeyFromString(string(res.Data))
		if parseErr != nil {
			return apdu.Command{}, false, &UnexpectedResultError{Data: res.Data}
		}
		it.finish(Xpub{Key: key})
	case OpenApp:
		// An app already open answers the dashboard class with
		// cla_not_supported; the task is done either way.
		if res.SW != apdu.SWOK && res.SW != apdu.SWClaNotSupported {
			return apdu.Command{}, false, &UnexpectedResultError{Data: res.Data}
		}
		it.finish(TaskDone{})
	case RegisterWallet:
		if res.SW != apdu.SWOK || len(res.Data) < 64 {
			return apdu.Command{}, false, &UnexpectedResultError{Data: res.Data}
		}
		var id, hmac [32]byte
		copy(id[:], res.Data[:32])
		copy(hmac[:], res.Data[32:64])
		wantID, idErr := cmd.Policy.ID()
		if idErr != nil || id != wantID {
			return apdu.Command{}, false, &UnexpectedResultError{Data: res.Data}
		}
		it.finish(WalletRegistered{ID: id, HMAC: hmac})
	case GetWalletAddress:
		if res.SW != apdu.SWOK || len(res.Data) == 0 {
			return apdu.Command{}, false, &UnexpectedResultError{Data: res.Data}
		}
		it.finish(Address{Address: string(res.Data)})
	}
	return apdu.Command{}, false, nil
}

// End consumes the session and yields the result. Calling End before the
// session is Finished, or twice, is a driver programming error and fails with
// ErrNoErrorOrResult.
func (it *Interpreter) End() (Response, error) {
	if it.state != stateFinished || it.consumed {
		return nil, ErrNoErrorOrResult
	}
	it.consumed = true
	result := it.result
	it.result = nil
	return result, nil
}

// finish drops the delegated store with the Running state.
func (it *Interpreter) finish(result Response) {
	it.state = stateFinished
	it.result = result
	it.store = nil
	it.command = nil
}
