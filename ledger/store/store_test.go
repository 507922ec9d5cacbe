package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/keyfrost/coldctl/ledger/merkle"
)

func leafProofRequest(root [merkle.HashLen]byte, index uint32) []byte {
	req := append([]byte{TagGetMerkleLeafProof}, root[:]...)
	return binary.BigEndian.AppendUint32(req, index)
}

func TestGetMerkleLeafProofReturnsLeafAndValidProof(t *testing.T) {
	leaves := [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma")}
	tree := merkle.NewTree(leaves)
	s := New()
	s.AddTree(tree)

	out, err := s.Execute(leafProofRequest(tree.Root(), 2))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	leafLen := int(out[0])
	leaf := out[1 : 1+leafLen]
	if !bytes.Equal(leaf, []byte("gamma")) {
		t.Fatalf("leaf mismatch: %q", leaf)
	}
	proofCount := int(out[1+leafLen])
	rest := out[2+leafLen:]
	if len(rest) != proofCount*merkle.HashLen {
		t.Fatalf("proof block length mismatch: %d for %d hashes", len(rest), proofCount)
	}
	proof := make([][merkle.HashLen]byte, proofCount)
	for i := range proof {
		copy(proof[i][:], rest[i*merkle.HashLen:])
	}
	root, err := merkle.VerifyProof(leaf, 2, len(leaves), proof)
	if err != nil {
		t.Fatalf("verify proof: %v", err)
	}
	if root != tree.Root() {
		t.Fatalf("returned proof does not verify against tree root")
	}
}

func TestGetMerkleLeafProofUnknownTree(t *testing.T) {
	s := New()
	s.AddTree(merkle.NewTree([][]byte{[]byte("a")}))
	_, err := s.Execute(leafProofRequest([merkle.HashLen]byte{0xEE}, 0))
	if !errors.Is(err, ErrUnknownTree) {
		t.Fatalf("expected ErrUnknownTree, got %v", err)
	}
}

func TestGetMerkleLeafProofIndexOutOfRange(t *testing.T) {
	tree := merkle.NewTree([][]byte{[]byte("a"), []byte("b")})
	s := New()
	s.AddTree(tree)
	_, err := s.Execute(leafProofRequest(tree.Root(), 2))
	if !errors.Is(err, merkle.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestGetMerkleLeafIndex(t *testing.T) {
	tree := merkle.NewTree([][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")})
	s := New()
	s.AddTree(tree)

	leafHash, err := tree.LeafHash(3)
	if err != nil {
		t.Fatalf("leaf hash: %v", err)
	}
	root := tree.Root()
	req := append([]byte{TagGetMerkleLeafIndex}, root[:]...)
	req = append(req, leafHash[:]...)
	out, err := s.Execute(req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := binary.BigEndian.Uint32(out); got != 3 {
		t.Fatalf("index mismatch: got %d want 3", got)
	}

	unknown := append([]byte{TagGetMerkleLeafIndex}, root[:]...)
	unknown = append(unknown, make([]byte, merkle.HashLen)...)
	if _, err := s.Execute(unknown); !errors.Is(err, ErrUnknownLeaf) {
		t.Fatalf("expected ErrUnknownLeaf, got %v", err)
	}
}

func TestGetPreimage(t *testing.T) {
	value := []byte("descriptor template bytes")
	s := New()
	s.AddPreimage(value)

	hash := sha256.Sum256(value)
	out, err := s.Execute(append([]byte{TagGetPreimage}, hash[:]...))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if int(out[0]) != len(value) || !bytes.Equal(out[1:], value) {
		t.Fatalf("preimage continuation mismatch: % X", out)
	}

	miss := sha256.Sum256([]byte("something else"))
	if _, err := s.Execute(append([]byte{TagGetPreimage}, miss[:]...)); !errors.Is(err, ErrUnknownPreimage) {
		t.Fatalf("expected ErrUnknownPreimage, got %v", err)
	}
}

func TestYieldProducesEmptyContinuation(t *testing.T) {
	out, err := New().Execute([]byte{TagYield})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("yield continuation must be empty, got % X", out)
	}
}

func TestUnknownTagFailsDecode(t *testing.T) {
	_, err := New().Execute([]byte{0x7F, 0x00})
	if !errors.Is(err, ErrUnknownClientCommand) {
		t.Fatalf("expected ErrUnknownClientCommand, got %v", err)
	}
}

func TestEmptyClientCommand(t *testing.T) {
	_, err := New().Execute(nil)
	if !errors.Is(err, ErrEmptyClientCommand) {
		t.Fatalf("expected ErrEmptyClientCommand, got %v", err)
	}
}

func TestShortClientCommandArguments(t *testing.T) {
	s := New()
	for _, req := range [][]byte{
		{TagGetPreimage, 0x01},
		{TagGetMerkleLeafProof, 0x01, 0x02},
		{TagGetMerkleLeafIndex},
	} {
		if _, err := s.Execute(req); !errors.Is(err, ErrShortClientCommand) {
			t.Fatalf("expected ErrShortClientCommand for % X, got %v", req, err)
		}
	}
}
