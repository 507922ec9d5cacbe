// Package ledger owns one device session from domain command to domain
// response.
//
// Ownership boundary:
// - the closed domain command and response sets
// - command frame encoders and derivation path serialization
// - wallet policy serialization and its delegated store contents
// - the session interpreter (New -> Running -> Finished)
//
// The interpreter performs no I/O; an external driver owns the transport and
// calls Start, Exchange and End (see package host).
package ledger

import (
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Command is the closed set of domain commands. Each variant maps to exactly
// one first-frame encoder.
type Command interface {
	isCommand()
}

// OpenApp asks the device dashboard to launch the signing application for a
// network.
type OpenApp struct {
	Network *chaincfg.Params
}

// GetMasterFingerprint requests the 4-byte identifier of the master key.
type GetMasterFingerprint struct{}

// GetXpub requests the extended public key at a derivation path, optionally
// confirmed on the device screen.
type GetXpub struct {
	Path    DerivationPath
	Display bool
}

// RegisterWallet asks the device to validate and co-sign a wallet policy.
// The policy is Merkle-ized and pulled by the device via client commands.
type RegisterWallet struct {
	Policy *WalletPolicy
}

// GetWalletAddress derives an address for a registered (or default) wallet
// policy on the device.
type GetWalletAddress struct {
	Policy       *WalletPolicy
	HMAC         [32]byte
	Change       bool
	AddressIndex uint32
	Display      bool
}

func (OpenApp) isCommand()              {}
func (GetMasterFingerprint) isCommand() {}
func (GetXpub) isCommand()              {}
func (RegisterWallet) isCommand()       {}
func (GetWalletAddress) isCommand()     {}

// Response is the closed set of domain responses.
type Response interface {
	isResponse()
}

// TaskDone reports a command with no payload result, such as OpenApp.
type TaskDone struct{}

// MasterFingerprint carries the 4-byte master key identifier.
type MasterFingerprint struct {
	Fingerprint [4]byte
}

// Xpub carries the parsed extended public key.
type Xpub struct {
	Key *hdkeychain.ExtendedKey
}

// WalletRegistered carries the device-confirmed policy id and the HMAC that
// authorizes later use of the policy.
type WalletRegistered struct {
	ID   [32]byte
	HMAC [32]byte
}

// Address carries a derived wallet address.
type Address struct {
	Address string
}

func (TaskDone) isResponse()          {}
func (MasterFingerprint) isResponse() {}
func (Xpub) isResponse()              {}
func (WalletRegistered) isResponse()  {}
func (Address) isResponse()           {}
