// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"fmt"

	"github.com/luxfi/ids"

	"github.com/dmrl789/IPPAN-sub009/scoring/codec"
	"github.com/dmrl789/IPPAN-sub009/scoring/fixed"
	"github.com/dmrl789/IPPAN-sub009/utils/wrappers"
)

// maxPayloadSize bounds the compressed payload carried by a manifest.
const maxPayloadSize = codec.MaxModelSize

// Manifest wraps a stored model. ID and ContentHash are both the
// content hash of the canonical ensemble bytes; Payload is those bytes
// after compression. A manifest whose recomputed payload hash differs
// from its ID is corrupt and must never be deserialized.
type Manifest struct {
	ID              ids.ID
	Name            string
	Version         string
	CreatedAt       int64 // microseconds since the Unix epoch
	ModelType       string
	Accuracy        fixed.Val
	TrainingSamples uint64
	ContentHash     ids.ID
	Payload         []byte
}

// Bytes encodes the manifest canonically. Field order is lexicographic
// by canonical field name: accuracy, content_hash, created_at, id,
// model_type, name, payload, training_samples, version.
func (m *Manifest) Bytes() ([]byte, error) {
	p := wrappers.Packer{MaxSize: 2 * codec.MaxModelSize}

	p.PackShort(codec.CodecVersion)
	p.PackInt64(m.Accuracy.Raw())
	p.PackFixedBytes(m.ContentHash[:])
	p.PackInt64(m.CreatedAt)
	p.PackFixedBytes(m.ID[:])
	p.PackStr(m.ModelType)
	p.PackStr(m.Name)
	p.PackBytes(m.Payload)
	p.PackLong(m.TrainingSamples)
	p.PackStr(m.Version)

	if p.Errored() {
		return nil, fmt.Errorf("manifest encode: %w", p.Err)
	}
	return p.Bytes, nil
}

// ParseManifest decodes manifest bytes, rejecting malformed input
// without returning a partially populated manifest.
func ParseManifest(bytes []byte) (*Manifest, error) {
	p := wrappers.Packer{Bytes: bytes}

	version := p.UnpackShort()
	if !p.Errored() && version != codec.CodecVersion {
		return nil, fmt.Errorf("%w: manifest codec version %d", codec.ErrDeserializationFailed, version)
	}

	m := &Manifest{}
	m.Accuracy = fixed.FromRaw(p.UnpackInt64())
	copy(m.ContentHash[:], p.UnpackFixedBytes(ids.IDLen))
	m.CreatedAt = p.UnpackInt64()
	copy(m.ID[:], p.UnpackFixedBytes(ids.IDLen))
	m.ModelType = p.UnpackStr()
	m.Name = p.UnpackStr()
	m.Payload = p.UnpackLimitedBytes(maxPayloadSize)
	m.TrainingSamples = p.UnpackLong()
	m.Version = p.UnpackStr()

	if p.Errored() {
		return nil, fmt.Errorf("%w: %w", codec.ErrDeserializationFailed, p.Err)
	}
	if p.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing manifest bytes", codec.ErrDeserializationFailed, p.Remaining())
	}
	return m, nil
}
