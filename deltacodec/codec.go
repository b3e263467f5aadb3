// Package deltacodec provides the two interchangeable byte-delta engines
// files-diff chooses between: RollingHash (rsync-style, good when after
// is mostly similar to before) and SuffixArrayBidi (bsdiff-style, good
// when after diverges substantially). Selection is a capability-typed
// dispatch — a tagged Algorithm value looked up in a registry — rather
// than a class hierarchy, mirroring the teacher's DeltaAlgorithm
// registry (inventory_archive.RegisterDeltaAlgorithm /
// DeltaAlgorithmForByte).
package deltacodec

import (
	"github.com/dolphin-foss/files-diff/internal/ferr"
)

// Algorithm identifies which delta engine a Patch was produced with. The
// tag is serialized as a stable small integer in the patch container.
type Algorithm byte

const (
	// RollingHash is the rsync-style, block-signature delta engine.
	RollingHash Algorithm = 0x01
	// SuffixArrayBidi is the bsdiff-style, bidirectional delta engine.
	SuffixArrayBidi Algorithm = 0x02
)

// Codec computes and applies binary deltas between two byte sequences.
type Codec interface {
	// Encode produces an opaque delta payload transforming before into
	// after. Total: always succeeds for any pair of byte slices.
	Encode(before, after []byte) ([]byte, error)

	// Decode reconstructs after from before and a delta payload
	// produced by Encode. Partial: fails with ferr.ErrCorruptDelta if
	// delta is not a valid payload for before, or ferr.ErrMismatchedBase
	// if it references regions absent from before.
	Decode(before, delta []byte) ([]byte, error)
}

var registry = map[Algorithm]Codec{}

// register adds a Codec to the registry under tag. Called from each
// codec's init().
func register(tag Algorithm, codec Codec) {
	registry[tag] = codec
}

// For looks up the Codec for a given Algorithm tag.
func For(tag Algorithm) (Codec, error) {
	codec, ok := registry[tag]
	if !ok {
		return nil, ferr.Errorf(
			"%w: unsupported delta algorithm byte: %d",
			ferr.ErrUnsupportedAlgorithm,
			tag,
		)
	}

	return codec, nil
}

// Valid reports whether tag names a known algorithm.
func (a Algorithm) Valid() bool {
	_, ok := registry[a]
	return ok
}

func (a Algorithm) String() string {
	switch a {
	case RollingHash:
		return "RollingHash"
	case SuffixArrayBidi:
		return "SuffixArrayBidi"
	default:
		return "Unknown"
	}
}
