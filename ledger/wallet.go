package ledger

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/keyfrost/coldctl/ledger/merkle"
	"github.com/keyfrost/coldctl/ledger/store"
)

// walletPolicyVersion tags the serialized policy layout.
const walletPolicyVersion = 0x02

const maxWalletNameLen = 64

var (
	ErrInvalidWalletName   = errors.New("ledger: invalid wallet policy name")
	ErrEmptyWalletTemplate = errors.New("ledger: empty wallet descriptor template")
	ErrNoWalletKeys        = errors.New("ledger: wallet policy has no keys")
	ErrWalletValueTooLarge = errors.New("ledger: wallet policy value too large for one frame")
)

// WalletPolicy is a structured wallet descriptor: a descriptor template plus
// the key expressions it references. Policies too large for one frame are
// pulled piecewise by the device through the delegated store.
type WalletPolicy struct {
	Name               string
	DescriptorTemplate string
	Keys               []string
}

// Validate enforces the device's policy shape limits before any I/O.
func (p *WalletPolicy) Validate() error {
	if p.Name == "" || len(p.Name) > maxWalletNameLen {
		return fmt.Errorf("%w: %d bytes", ErrInvalidWalletName, len(p.Name))
	}
	if p.DescriptorTemplate == "" {
		return ErrEmptyWalletTemplate
	}
	if len(p.DescriptorTemplate) > 255 {
		return fmt.Errorf("%w: descriptor template is %d bytes", ErrWalletValueTooLarge, len(p.DescriptorTemplate))
	}
	if len(p.Keys) == 0 {
		return ErrNoWalletKeys
	}
	for i, key := range p.Keys {
		if key == "" || len(key) > 255 {
			return fmt.Errorf("%w: key %d is %d bytes", ErrWalletValueTooLarge, i, len(key))
		}
	}
	return nil
}

// Serialize encodes the policy header the device hashes and displays:
// version | name length | name | template length | SHA-256 of template |
// key count | Merkle root over the key expressions.
func (p *WalletPolicy) Serialize() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	templateHash := sha256.Sum256([]byte(p.DescriptorTemplate))
	keysRoot := p.keysTree().Root()
	out := make([]byte, 0, 4+len(p.Name)+2*merkle.HashLen)
	out = append(out, walletPolicyVersion, byte(len(p.Name)))
	out = append(out, p.Name...)
	out = append(out, byte(len(p.DescriptorTemplate)))
	out = append(out, templateHash[:]...)
	out = append(out, byte(len(p.Keys)))
	out = append(out, keysRoot[:]...)
	return out, nil
}

// ID is the policy identifier the device reports back on registration.
func (p *WalletPolicy) ID() ([32]byte, error) {
	serialized, err := p.Serialize()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(serialized), nil
}

// keysTree builds the Merkle tree over the key expressions, in declaration
// order.
func (p *WalletPolicy) keysTree() *merkle.Tree {
	leaves := make([][]byte, len(p.Keys))
	for i, key := range p.Keys {
		leaves[i] = []byte(key)
	}
	return merkle.NewTree(leaves)
}

// Store builds the delegated store answering the device's pulls for this
// policy: the policy serialization and descriptor template preimages, the key
// tree, and each key expression preimage.
func (p *WalletPolicy) Store() (*store.Store, error) {
	serialized, err := p.Serialize()
	if err != nil {
		return nil, err
	}
	s := store.New()
	s.AddPreimage(serialized)
	s.AddPreimage([]byte(p.DescriptorTemplate))
	s.AddTree(p.keysTree())
	for _, key := range p.Keys {
		s.AddPreimage([]byte(key))
	}
	return s, nil
}
