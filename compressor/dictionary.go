package compressor

import (
	"github.com/DataDog/zstd"

	"github.com/dolphin-foss/files-diff/internal/ferr"
)

// level21 is the compression level DictionaryLevel21 uses — one below
// zstd's absolute ceiling (22), matching the algorithm's name. See the
// "Open question resolution" note in SPEC_FULL.md §4.3 for why this
// reads "dictionary" as zstd's internal LZ-dictionary matching rather
// than a caller-supplied dictionary blob: the library contract has no
// seam through which to pass one.
const level21 = 21

func init() {
	register(DictionaryLevel21, zstdCompressor{})
}

type zstdCompressor struct{}

var _ Compressor = zstdCompressor{}

func (zstdCompressor) Compress(raw []byte) ([]byte, error) {
	out, err := zstd.CompressLevel(nil, raw, level21)
	if err != nil {
		return nil, ferr.Errorf("%w: zstd compress: %v", ferr.ErrCorruptDelta, err)
	}

	return out, nil
}

func (zstdCompressor) Decompress(payload []byte) ([]byte, error) {
	out, err := zstd.Decompress(nil, payload)
	if err != nil {
		return nil, ferr.Errorf("%w: zstd decompress: %v", ferr.ErrCorruptDelta, err)
	}

	return out, nil
}
