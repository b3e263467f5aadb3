// Package patch implements the patch pipeline (diff/apply) and the
// patch container format: it wires a chosen deltacodec.Codec and
// compressor.Compressor together with fingerprint integrity framing,
// following the same "compute digest while writing, verify digest while
// reading" discipline as the teacher's
// inventory_archive.DataWriterV1/DataReaderV1.
package patch

import (
	"github.com/dolphin-foss/files-diff/compressor"
	"github.com/dolphin-foss/files-diff/deltacodec"
	"github.com/dolphin-foss/files-diff/fingerprint"
	"github.com/dolphin-foss/files-diff/internal/ferr"
)

// Patch is an immutable record bundling a delta, its compression, and
// fingerprints of both endpoints. Construct with Diff; never mutate a
// Patch after construction.
type Patch struct {
	DeltaAlgo    deltacodec.Algorithm
	CompressAlgo compressor.Algorithm

	BeforeFingerprint fingerprint.Fingerprint
	AfterFingerprint  fingerprint.Fingerprint

	// Payload is the compressed delta produced by the chosen codec then
	// the chosen compressor.
	Payload []byte
}

// Diff computes a Patch transforming before into after using the given
// delta algorithm and compressor.
//
//  1. bf = fingerprint(before), af = fingerprint(after)
//  2. raw = codec(delta).Encode(before, after)
//  3. payload = compressor(compress).Compress(raw)
//  4. return Patch{delta, compress, bf, af, payload}
func Diff(
	before, after []byte,
	delta deltacodec.Algorithm,
	compress compressor.Algorithm,
) (*Patch, error) {
	codec, err := deltacodec.For(delta)
	if err != nil {
		return nil, err
	}

	comp, err := compressor.For(compress)
	if err != nil {
		return nil, err
	}

	raw, err := codec.Encode(before, after)
	if err != nil {
		return nil, ferr.Wrap(err)
	}

	payload, err := comp.Compress(raw)
	if err != nil {
		return nil, ferr.Wrap(err)
	}

	return &Patch{
		DeltaAlgo:         delta,
		CompressAlgo:      compress,
		BeforeFingerprint: fingerprint.Of(before),
		AfterFingerprint:  fingerprint.Of(after),
		Payload:           payload,
	}, nil
}

// Apply reconstructs after from before and p.
//
//  1. verify fingerprint(before) == p.BeforeFingerprint, else MismatchedBase
//  2. raw = compressor(p.CompressAlgo).Decompress(p.Payload)
//  3. after = codec(p.DeltaAlgo).Decode(before, raw)
//  4. verify fingerprint(after) == p.AfterFingerprint, else CorruptDelta
//  5. return after
//
// All checks are mandatory: there is no "unchecked" apply, because
// delta decoders can silently succeed on malformed input in pathological
// cases, and the post-apply fingerprint is the authoritative correctness
// check.
func (p *Patch) Apply(before []byte) ([]byte, error) {
	if bf := fingerprint.Of(before); !bf.Equal(p.BeforeFingerprint) {
		return nil, ferr.Errorf(
			"%w: before fingerprint %s != patch's recorded %s",
			ferr.ErrMismatchedBase,
			bf,
			p.BeforeFingerprint,
		)
	}

	comp, err := compressor.For(p.CompressAlgo)
	if err != nil {
		return nil, err
	}

	raw, err := comp.Decompress(p.Payload)
	if err != nil {
		return nil, ferr.Wrap(err)
	}

	codec, err := deltacodec.For(p.DeltaAlgo)
	if err != nil {
		return nil, err
	}

	after, err := codec.Decode(before, raw)
	if err != nil {
		return nil, ferr.Wrap(err)
	}

	if af := fingerprint.Of(after); !af.Equal(p.AfterFingerprint) {
		return nil, ferr.Errorf(
			"%w: decoded output fingerprint %s != patch's recorded %s",
			ferr.ErrCorruptDelta,
			af,
			p.AfterFingerprint,
		)
	}

	return after, nil
}
