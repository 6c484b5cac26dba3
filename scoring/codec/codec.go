// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package codec implements the canonical serialization and content
// hashing of model ensembles.
//
// The canonical form is a versioned big-endian binary encoding whose
// field order is the lexicographic order of the canonical field names.
// Two value-equal ensembles produce byte-identical output no matter
// how they were constructed, which is what makes the content hash a
// usable model identity across independent nodes. Changing any part of
// this encoding, including the <=-goes-left traversal convention it
// freezes, requires a new codec version.
package codec

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"

	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
	"github.com/dmrl789/IPPAN-sub009/scoring/gbdt"
	"github.com/dmrl789/IPPAN-sub009/utils/compression"
	"github.com/dmrl789/IPPAN-sub009/utils/wrappers"
)

const (
	// CodecVersion is the canonical encoding version.
	CodecVersion uint16 = 0

	// MaxModelSize bounds both the canonical bytes and the
	// decompressed payload.
	MaxModelSize = 32 * 1024 * 1024

	maxTrees        = 1 << 20
	maxNodesPerTree = 1 << 24
)

var (
	ErrDeserializationFailed = errors.New("codec: deserialization failed")
	errWrongCodecVersion     = errors.New("codec: wrong codec version")
)

// Codec canonicalizes, hashes, and (de)compresses ensembles.
type Codec struct {
	compressor compression.Compressor
}

// New returns a Codec with a zstd payload transform bounded at
// MaxModelSize.
func New() (*Codec, error) {
	compressor, err := compression.NewZstdCompressor(MaxModelSize)
	if err != nil {
		return nil, err
	}
	return &Codec{compressor: compressor}, nil
}

// Canonicalize encodes the ensemble into its unique canonical bytes.
// Field order within each structure is lexicographic by canonical
// field name: ensemble = (feature_count, feature_importance,
// learning_rate, trees); node = (feature_index, leaf, left, right,
// threshold, value). Fixed-point values are emitted as raw 8-byte
// big-endian two's complement integers, never as decimal text.
func Canonicalize(e *gbdt.Ensemble) ([]byte, error) {
	p := wrappers.Packer{MaxSize: MaxModelSize}

	p.PackShort(CodecVersion)
	p.PackInt(e.FeatureCount)
	p.PackInt(uint32(len(e.FeatureImportance)))
	for _, imp := range e.FeatureImportance {
		p.PackInt64(imp.Raw())
	}
	p.PackInt64(e.LearningRate.Raw())
	p.PackInt(uint32(len(e.Trees)))
	for i := range e.Trees {
		packTree(&p, &e.Trees[i])
	}

	if p.Errored() {
		return nil, fmt.Errorf("canonicalize: %w", p.Err)
	}
	return p.Bytes, nil
}

func packTree(p *wrappers.Packer, t *gbdt.Tree) {
	p.PackInt(uint32(len(t.Nodes)))
	for _, n := range t.Nodes {
		p.PackInt(n.FeatureIndex)
		p.PackBool(n.Leaf)
		p.PackInt(n.Left)
		p.PackInt(n.Right)
		p.PackInt64(n.Threshold.Raw())
		p.PackInt64(n.Value.Raw())
	}
}

// Decode parses canonical bytes back into an ensemble. Malformed
// input, trailing bytes, and version mismatches all surface as
// ErrDeserializationFailed; a partially populated ensemble is never
// returned.
func Decode(bytes []byte) (*gbdt.Ensemble, error) {
	p := wrappers.Packer{Bytes: bytes}

	version := p.UnpackShort()
	if p.Errored() {
		return nil, fmt.Errorf("%w: %w", ErrDeserializationFailed, p.Err)
	}
	if version != CodecVersion {
		return nil, fmt.Errorf("%w: %w: %d", ErrDeserializationFailed, errWrongCodecVersion, version)
	}

	e := &gbdt.Ensemble{}
	e.FeatureCount = p.UnpackInt()

	numImportance := p.UnpackInt()
	if numImportance > maxNodesPerTree {
		return nil, fmt.Errorf("%w: importance count %d", ErrDeserializationFailed, numImportance)
	}
	e.FeatureImportance = make([]fixed.Val, 0, numImportance)
	for i := uint32(0); i < numImportance && !p.Errored(); i++ {
		e.FeatureImportance = append(e.FeatureImportance, fixed.FromRaw(p.UnpackInt64()))
	}

	e.LearningRate = fixed.FromRaw(p.UnpackInt64())

	numTrees := p.UnpackInt()
	if numTrees > maxTrees {
		return nil, fmt.Errorf("%w: tree count %d", ErrDeserializationFailed, numTrees)
	}
	e.Trees = make([]gbdt.Tree, 0, numTrees)
	for i := uint32(0); i < numTrees && !p.Errored(); i++ {
		tree, err := unpackTree(&p)
		if err != nil {
			return nil, err
		}
		e.Trees = append(e.Trees, tree)
	}

	if p.Errored() {
		return nil, fmt.Errorf("%w: %w", ErrDeserializationFailed, p.Err)
	}
	if p.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrDeserializationFailed, p.Remaining())
	}
	return e, nil
}

func unpackTree(p *wrappers.Packer) (gbdt.Tree, error) {
	numNodes := p.UnpackInt()
	if numNodes > maxNodesPerTree {
		return gbdt.Tree{}, fmt.Errorf("%w: node count %d", ErrDeserializationFailed, numNodes)
	}
	nodes := make([]gbdt.Node, 0, numNodes)
	for i := uint32(0); i < numNodes && !p.Errored(); i++ {
		node := gbdt.Node{}
		node.FeatureIndex = p.UnpackInt()
		node.Leaf = p.UnpackBool()
		node.Left = p.UnpackInt()
		node.Right = p.UnpackInt()
		node.Threshold = fixed.FromRaw(p.UnpackInt64())
		node.Value = fixed.FromRaw(p.UnpackInt64())
		nodes = append(nodes, node)
	}
	return gbdt.Tree{Nodes: nodes}, nil
}

// Hash returns the 256-bit content hash of bytes.
func Hash(bytes []byte) ids.ID {
	return ids.ID(hash.ComputeHash256Array(bytes))
}

// HashHex is the lowercase hex wire form of a content hash.
func HashHex(id ids.ID) string {
	return hex.EncodeToString(id[:])
}

// Compress applies the reversible storage transform to canonical
// bytes.
func (c *Codec) Compress(bytes []byte) ([]byte, error) {
	return c.compressor.Compress(bytes)
}

// Decompress reverses Compress. Malformed input surfaces as
// ErrDeserializationFailed.
func (c *Codec) Decompress(bytes []byte) ([]byte, error) {
	out, err := c.compressor.Decompress(bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserializationFailed, err)
	}
	return out, nil
}
