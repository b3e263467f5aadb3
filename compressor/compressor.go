// Package compressor provides the two interchangeable byte transforms
// files-diff applies to a delta payload after encoding: None (identity)
// and DictionaryLevel21 (zstd at level 21). Dispatch mirrors
// deltacodec's tagged-registry shape, which itself mirrors the
// teacher's inventory_archive.CompressionToByte/ByteToCompression
// tables.
package compressor

import (
	"github.com/dolphin-foss/files-diff/internal/ferr"
)

// Algorithm identifies which compressor a Patch's payload was produced
// with. The tag is serialized as a stable small integer in the patch
// container.
type Algorithm byte

const (
	// None is the identity transform.
	None Algorithm = 0x00
	// DictionaryLevel21 is zstd at compression level 21.
	DictionaryLevel21 Algorithm = 0x01
)

// Compressor applies a symmetric compress/decompress transform to an
// opaque byte payload.
type Compressor interface {
	Compress(raw []byte) ([]byte, error)
	Decompress(payload []byte) ([]byte, error)
}

var registry = map[Algorithm]Compressor{}

func register(tag Algorithm, c Compressor) {
	registry[tag] = c
}

// For looks up the Compressor for a given Algorithm tag.
func For(tag Algorithm) (Compressor, error) {
	c, ok := registry[tag]
	if !ok {
		return nil, ferr.Errorf(
			"%w: unsupported compression algorithm byte: %d",
			ferr.ErrUnsupportedAlgorithm,
			tag,
		)
	}

	return c, nil
}

// Valid reports whether tag names a known algorithm.
func (a Algorithm) Valid() bool {
	_, ok := registry[a]
	return ok
}

func (a Algorithm) String() string {
	switch a {
	case None:
		return "None"
	case DictionaryLevel21:
		return "DictionaryLevel21"
	default:
		return "Unknown"
	}
}
