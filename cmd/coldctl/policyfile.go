package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/keyfrost/coldctl/ledger"
)

type policyFile struct {
	Name               string   `toml:"name"`
	DescriptorTemplate string   `toml:"descriptor_template"`
	Keys               []string `toml:"keys"`
	HMAC               string   `toml:"hmac"`
}

// loadPolicyFile reads a wallet policy description. The hmac field is optional;
// it is only present after registration, and address derivation for a
// registered policy needs it.
func loadPolicyFile(path string) (*ledger.WalletPolicy, [32]byte, error) {
	var raw policyFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("load wallet policy: %w", err)
	}

	policy := &ledger.WalletPolicy{
		Name:               strings.TrimSpace(raw.Name),
		DescriptorTemplate: strings.TrimSpace(raw.DescriptorTemplate),
		Keys:               raw.Keys,
	}
	if err := policy.Validate(); err != nil {
		return nil, [32]byte{}, fmt.Errorf("wallet policy %s: %w", path, err)
	}

	var hmac [32]byte
	if meta.IsDefined("hmac") {
		decoded, err := hex.DecodeString(strings.TrimSpace(raw.HMAC))
		if err != nil {
			return nil, [32]byte{}, fmt.Errorf("parse hmac: %w", err)
		}
		if len(decoded) != len(hmac) {
			return nil, [32]byte{}, fmt.Errorf("parse hmac: expected %d bytes, got %d", len(hmac), len(decoded))
		}
		copy(hmac[:], decoded)
	}
	return policy, hmac, nil
}
