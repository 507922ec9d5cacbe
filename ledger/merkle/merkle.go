// Package merkle owns the host-side Merkle tree the device verifies against.
//
// Ownership boundary:
// - tree construction over an ordered leaf sequence
// - inclusion proofs (leaf value + sibling hashes toward the root)
// - leaf hash -> index lookup
//
// Hashing is SHA-256 with a 0x00 domain prefix for leaves and 0x01 for
// interior nodes. Trees with more than one leaf split at the largest power of
// two strictly below the leaf count. The device firmware verifies proofs
// against this exact shape; any deviation is rejected on hardware.
package merkle

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// HashLen is the width of every tree node.
const HashLen = sha256.Size

const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

var ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")

// Tree is an immutable Merkle tree over an ordered leaf sequence. Leaf order
// is significant; a changed leaf set requires a new tree.
type Tree struct {
	leaves     [][]byte
	leafHashes [][HashLen]byte
	indexes    map[[HashLen]byte]int
	root       [HashLen]byte
}

// NewTree builds a tree over the given leaves. The leaf values are copied;
// later mutation of the input does not affect the tree. The empty tree has an
// all-zero root.
func NewTree(leaves [][]byte) *Tree {
	t := &Tree{
		leaves:     make([][]byte, len(leaves)),
		leafHashes: make([][HashLen]byte, len(leaves)),
		indexes:    make(map[[HashLen]byte]int, len(leaves)),
	}
	for i, leaf := range leaves {
		cp := make([]byte, len(leaf))
		copy(cp, leaf)
		t.leaves[i] = cp
		t.leafHashes[i] = hashLeaf(cp)
		if _, dup := t.indexes[t.leafHashes[i]]; !dup {
			t.indexes[t.leafHashes[i]] = i
		}
	}
	if len(leaves) > 0 {
		t.root = t.subtreeRoot(0, len(leaves))
	}
	return t
}

// Size returns the leaf count.
func (t *Tree) Size() int {
	return len(t.leaves)
}

// Root returns the tree root.
func (t *Tree) Root() [HashLen]byte {
	return t.root
}

// Leaf returns a copy of the leaf value at index.
func (t *Tree) Leaf(index int) ([]byte, error) {
	if index < 0 || index >= len(t.leaves) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(t.leaves))
	}
	cp := make([]byte, len(t.leaves[index]))
	copy(cp, t.leaves[index])
	return cp, nil
}

// LeafHash returns the domain-prefixed hash of the leaf at index.
func (t *Tree) LeafHash(index int) ([HashLen]byte, error) {
	if index < 0 || index >= len(t.leafHashes) {
		return [HashLen]byte{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(t.leafHashes))
	}
	return t.leafHashes[index], nil
}

// LeafIndex returns the index of the leaf with the given hash. The second
// return is false when no leaf hashes to it.
func (t *Tree) LeafIndex(hash [HashLen]byte) (int, bool) {
	i, ok := t.indexes[hash]
	return i, ok
}

// Proof returns the leaf value at index together with the sibling hashes from
// the leaf toward the root. Combining the leaf hash with the path reproduces
// the root.
func (t *Tree) Proof(index int) ([]byte, [][HashLen]byte, error) {
	leaf, err := t.Leaf(index)
	if err != nil {
		return nil, nil, err
	}
	return leaf, t.subtreeProof(index, 0, len(t.leaves)), nil
}

// subtreeRoot hashes the leaf range [lo, hi).
func (t *Tree) subtreeRoot(lo, hi int) [HashLen]byte {
	if hi-lo == 1 {
		return t.leafHashes[lo]
	}
	mid := lo + splitPoint(hi-lo)
	return hashNode(t.subtreeRoot(lo, mid), t.subtreeRoot(mid, hi))
}

// subtreeProof collects sibling hashes for index within [lo, hi), ordered
// leaf-side first.
func (t *Tree) subtreeProof(index, lo, hi int) [][HashLen]byte {
	if hi-lo == 1 {
		return nil
	}
	mid := lo + splitPoint(hi-lo)
	if index < mid {
		return append(t.subtreeProof(index, lo, mid), t.subtreeRoot(mid, hi))
	}
	return append(t.subtreeProof(index, mid, hi), t.subtreeRoot(lo, mid))
}

// splitPoint returns the largest power of two strictly below n, for n > 1.
func splitPoint(n int) int {
	split := 1
	for split*2 < n {
		split *= 2
	}
	return split
}

// VerifyProof recomputes the root from a leaf and its sibling path. The path
// alone does not encode left/right placement, so the leaf index and tree size
// drive the fold.
func VerifyProof(leaf []byte, index, size int, proof [][HashLen]byte) ([HashLen]byte, error) {
	if index < 0 || index >= size {
		return [HashLen]byte{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, size)
	}
	return foldProof(hashLeaf(leaf), index, 0, size, proof)
}

func foldProof(acc [HashLen]byte, index, lo, hi int, proof [][HashLen]byte) ([HashLen]byte, error) {
	if hi-lo == 1 {
		if len(proof) != 0 {
			return [HashLen]byte{}, errors.New("merkle: proof longer than tree depth")
		}
		return acc, nil
	}
	if len(proof) == 0 {
		return [HashLen]byte{}, errors.New("merkle: proof shorter than tree depth")
	}
	sibling := proof[len(proof)-1]
	rest := proof[:len(proof)-1]
	mid := lo + splitPoint(hi-lo)
	if index < mid {
		acc, err := foldProof(acc, index, lo, mid, rest)
		if err != nil {
			return [HashLen]byte{}, err
		}
		return hashNode(acc, sibling), nil
	}
	acc, err := foldProof(acc, index, mid, hi, rest)
	if err != nil {
		return [HashLen]byte{}, err
	}
	return hashNode(sibling, acc), nil
}

func hashLeaf(leaf []byte) [HashLen]byte {
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write(leaf)
	var out [HashLen]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashNode(left, right [HashLen]byte) [HashLen]byte {
	h := sha256.New()
	h.Write([]byte{nodePrefix})
	h.Write(left[:])
	h.Write(right[:])
	var out [HashLen]byte
	copy(out[:], h.Sum(nil))
	return out
}
