// Package store owns the delegated store answering device data pulls.
//
// Ownership boundary:
// - client command parsing (the payload of an interrupted-execution response)
// - per-session registry of Merkle trees and raw preimages
// - dispatch to exactly one continuation payload per client command
//
// The store carries no cross-session state. It exists only while a command
// that declared it is running and is dropped with the session.
package store

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/keyfrost/coldctl/ledger/merkle"
)

// Client command tags, first byte of an interrupted-execution payload. The
// table is fixed by the device firmware; an undocumented tag is a decode
// failure, never a silent default.
const (
	TagGetPreimage        byte = 0x08
	TagGetMerkleLeafProof byte = 0x10
	TagGetMerkleLeafIndex byte = 0x11
	TagYield              byte = 0x32
)

var (
	ErrEmptyClientCommand   = errors.New("store: empty client command")
	ErrUnknownClientCommand = errors.New("store: unknown client command tag")
	ErrShortClientCommand   = errors.New("store: short client command arguments")
	ErrUnknownTree          = errors.New("store: no tree registered for root")
	ErrUnknownPreimage      = errors.New("store: no preimage registered for hash")
	ErrUnknownLeaf          = errors.New("store: no leaf registered for hash")
	ErrValueTooLarge        = errors.New("store: value exceeds one-byte length field")
)

// Store registers the Merkle trees and preimages one running command may be
// asked for.
type Store struct {
	trees     map[[merkle.HashLen]byte]*merkle.Tree
	preimages map[[sha256.Size]byte][]byte
}

func New() *Store {
	return &Store{
		trees:     make(map[[merkle.HashLen]byte]*merkle.Tree),
		preimages: make(map[[sha256.Size]byte][]byte),
	}
}

// AddTree registers a tree under its root.
func (s *Store) AddTree(t *merkle.Tree) {
	s.trees[t.Root()] = t
}

// AddPreimage registers a raw value under its SHA-256 hash. The value is
// copied.
func (s *Store) AddPreimage(value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.preimages[sha256.Sum256(cp)] = cp
}

// Execute dispatches one client command and returns the continuation payload
// for it. A lookup miss is a session/store mismatch and is always reported.
func (s *Store) Execute(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyClientCommand
	}
	tag, args := data[0], data[1:]
	switch tag {
	case TagGetPreimage:
		return s.getPreimage(args)
	case TagGetMerkleLeafProof:
		return s.getMerkleLeafProof(args)
	case TagGetMerkleLeafIndex:
		return s.getMerkleLeafIndex(args)
	case TagYield:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownClientCommand, tag)
	}
}

// getPreimage: args = 32-byte SHA-256 hash.
// Continuation: 1-byte length | preimage.
func (s *Store) getPreimage(args []byte) ([]byte, error) {
	if len(args) < sha256.Size {
		return nil, fmt.Errorf("%w: get-preimage wants %d bytes, got %d", ErrShortClientCommand, sha256.Size, len(args))
	}
	var hash [sha256.Size]byte
	copy(hash[:], args[:sha256.Size])
	value, ok := s.preimages[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %X", ErrUnknownPreimage, hash)
	}
	return appendLengthPrefixed(nil, value)
}

// getMerkleLeafProof: args = 32-byte root | 4-byte big-endian leaf index.
// Continuation: 1-byte leaf length | leaf | 1-byte proof count | proof hashes.
func (s *Store) getMerkleLeafProof(args []byte) ([]byte, error) {
	if len(args) < merkle.HashLen+4 {
		return nil, fmt.Errorf("%w: get-merkle-leaf-proof wants %d bytes, got %d", ErrShortClientCommand, merkle.HashLen+4, len(args))
	}
	var root [merkle.HashLen]byte
	copy(root[:], args[:merkle.HashLen])
	index := int(binary.BigEndian.Uint32(args[merkle.HashLen : merkle.HashLen+4]))
	tree, ok := s.trees[root]
	if !ok {
		return nil, fmt.Errorf("%w: %X", ErrUnknownTree, root)
	}
	leaf, proof, err := tree.Proof(index)
	if err != nil {
		return nil, err
	}
	out, err := appendLengthPrefixed(nil, leaf)
	if err != nil {
		return nil, err
	}
	out = append(out, byte(len(proof)))
	for _, sibling := range proof {
		out = append(out, sibling[:]...)
	}
	return out, nil
}

// getMerkleLeafIndex: args = 32-byte root | 32-byte leaf hash.
// Continuation: 4-byte big-endian index.
func (s *Store) getMerkleLeafIndex(args []byte) ([]byte, error) {
	if len(args) < merkle.HashLen*2 {
		return nil, fmt.Errorf("%w: get-merkle-leaf-index wants %d bytes, got %d", ErrShortClientCommand, merkle.HashLen*2, len(args))
	}
	var root, leafHash [merkle.HashLen]byte
	copy(root[:], args[:merkle.HashLen])
	copy(leafHash[:], args[merkle.HashLen:merkle.HashLen*2])
	tree, ok := s.trees[root]
	if !ok {
		return nil, fmt.Errorf("%w: %X", ErrUnknownTree, root)
	}
	index, ok := tree.LeafIndex(leafHash)
	if !ok {
		return nil, fmt.Errorf("%w: %X", ErrUnknownLeaf, leafHash)
	}
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(index))
	return out, nil
}

func appendLengthPrefixed(dst, value []byte) ([]byte, error) {
	if len(value) > 255 {
		return nil, fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(value))
	}
	dst = append(dst, byte(len(value)))
	return append(dst, value...), nil
}
