package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPathDepth is the deepest derivation path the device accepts.
const MaxPathDepth = 8

const hardenedOffset = 0x80000000

var (
	ErrPathTooDeep     = errors.New("ledger: derivation path too deep")
	ErrInvalidPathStep = errors.New("ledger: invalid derivation path step")
)

// DerivationPath is a hierarchical key identifier. Components at or above
// 0x80000000 are hardened.
type DerivationPath []uint32

// ParseDerivationPath parses textual paths such as "m/48'/1'/0'/2'". Both '
// and h mark hardened steps; the leading m/ is optional.
func ParseDerivationPath(raw string) (DerivationPath, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "m/")
	if s == "" || s == "m" {
		return DerivationPath{}, nil
	}
	parts := strings.Split(s, "/")
	if len(parts) > MaxPathDepth {
		return nil, fmt.Errorf("%w: %d components", ErrPathTooDeep, len(parts))
	}
	path := make(DerivationPath, 0, len(parts))
	for _, part := range parts {
		step := part
		hardened := false
		if strings.HasSuffix(step, "'") || strings.HasSuffix(step, "h") || strings.HasSuffix(step, "H") {
			hardened = true
			step = step[:len(step)-1]
		}
		v, err := strconv.ParseUint(step, 10, 32)
		if err != nil || v >= hardenedOffset {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPathStep, part)
		}
		if hardened {
			v += hardenedOffset
		}
		path = append(path, uint32(v))
	}
	return path, nil
}

// Serialize encodes the path as a 1-byte component count followed by 4-byte
// big-endian components, the layout the device expects inside command frames.
func (p DerivationPath) Serialize() ([]byte, error) {
	if len(p) > MaxPathDepth {
		return nil, fmt.Errorf("%w: %d components", ErrPathTooDeep, len(p))
	}
	out := make([]byte, 0, 1+4*len(p))
	out = append(out, byte(len(p)))
	for _, step := range p {
		out = binary.BigEndian.AppendUint32(out, step)
	}
	return out, nil
}

func (p DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, step := range p {
		b.WriteString("/")
		if step >= hardenedOffset {
			b.WriteString(strconv.FormatUint(uint64(step-hardenedOffset), 10))
			b.WriteString("'")
		} else {
			b.WriteString(strconv.FormatUint(uint64(step), 10))
		}
	}
	return b.String()
}
