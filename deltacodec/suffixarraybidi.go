package deltacodec

import (
	bsdiffpkg "github.com/gabstv/go-bsdiff/pkg/bsdiff"
	"github.com/gabstv/go-bsdiff/pkg/bspatch"

	"github.com/dolphin-foss/files-diff/internal/ferr"
)

func init() {
	register(SuffixArrayBidi, &suffixArrayBidiCodec{})
}

// suffixArrayBidiCodec implements Codec using the bsdiff4 algorithm: a
// suffix-array index over before is used to emit a stream of
// (copy_offset, copy_length, add_bytes) control triples, exactly as
// inventory_archive.Bsdiff wires github.com/gabstv/go-bsdiff.
type suffixArrayBidiCodec struct{}

var _ Codec = &suffixArrayBidiCodec{}

func (c *suffixArrayBidiCodec) Encode(before, after []byte) ([]byte, error) {
	patch, err := bsdiffpkg.Bytes(before, after)
	if err != nil {
		return nil, ferr.Errorf("%w: bsdiff encode: %v", ferr.ErrCorruptDelta, err)
	}

	return patch, nil
}

// Decode reports every bspatch failure as ferr.ErrCorruptDelta; it does
// not return ferr.ErrMismatchedBase for a base that lacks regions the
// delta references.
func (c *suffixArrayBidiCodec) Decode(before, delta []byte) ([]byte, error) {
	out, err := bspatch.Bytes(before, delta)
	if err != nil {
		return nil, ferr.Errorf("%w: bsdiff decode: %v", ferr.ErrCorruptDelta, err)
	}

	return out, nil
}
