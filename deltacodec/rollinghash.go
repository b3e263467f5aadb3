package deltacodec

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"

	"github.com/dolphin-foss/files-diff/internal/ferr"
)

func init() {
	register(RollingHash, &rollingHashCodec{})
}

const (
	minBlockSize = 16
	// maxBlockSize matches the ceiling used by kovidgoyal-kitty's
	// tools/rsync (sqrt of 1TB), well beyond any input this library
	// expects to see in memory at once.
	maxBlockSize = 1 << 20

	// weakModulus is the classic rsync rolling-checksum modulus; see
	// https://rsync.samba.org/tech_report/node3.html.
	weakModulus uint32 = 1 << 16
)

const (
	opLiteral byte = 0x00
	opCopy    byte = 0x01
)

// rollingHashCodec implements Codec using fixed-size blocks over before,
// a rolling weak checksum plus an xxh3 strong checksum per block, and an
// op stream of literal runs and copy-from-block references over after.
type rollingHashCodec struct{}

var _ Codec = &rollingHashCodec{}

// blockSizeFor deterministically derives the block size from the length
// of before, so neither Encode nor Decode needs to transmit it.
func blockSizeFor(beforeLen int) int {
	if beforeLen <= 0 {
		return 0
	}

	bs := int(math.Round(math.Sqrt(float64(beforeLen))))
	if bs < minBlockSize {
		bs = minBlockSize
	}
	if bs > maxBlockSize {
		bs = maxBlockSize
	}
	if bs > beforeLen {
		bs = beforeLen
	}

	return bs
}

type blockSignature struct {
	index  int
	length int
	strong xxh3.Uint128
}

// rollingChecksum is the additive alpha/beta rolling checksum from the
// rsync tech report (section 3), allowing O(1) updates as the scan
// window slides forward by one byte.
type rollingChecksum struct {
	alpha, beta, windowLen, firstByte uint32
}

func (r *rollingChecksum) full(data []byte) uint32 {
	var alpha, beta uint32

	l := uint32(len(data))
	r.windowLen = l

	for i, b := range data {
		alpha += uint32(b)
		beta += (l - uint32(i)) * uint32(b)
	}

	if len(data) > 0 {
		r.firstByte = uint32(data[0])
	}

	r.alpha = alpha % weakModulus
	r.beta = beta % weakModulus

	return r.value()
}

func (r *rollingChecksum) value() uint32 {
	return r.alpha + weakModulus*r.beta
}

// roll slides the window forward by one byte: incomingByte enters at the
// rear, and newFirstByte is the byte now at the front of the window
// (i.e. the byte that will leave on the *next* call). See
// https://rsync.samba.org/tech_report/node3.html.
func (r *rollingChecksum) roll(newFirstByte, incomingByte byte) uint32 {
	r.alpha = (r.alpha - r.firstByte + uint32(incomingByte)) % weakModulus
	r.beta = (r.beta - r.windowLen*r.firstByte + r.alpha) % weakModulus
	r.firstByte = uint32(newFirstByte)

	return r.value()
}

func (c *rollingHashCodec) Encode(before, after []byte) ([]byte, error) {
	bs := blockSizeFor(len(before))

	var buf bytes.Buffer

	if bs == 0 {
		if len(after) > 0 {
			writeLiteral(&buf, after)
		}
		return buf.Bytes(), nil
	}

	signatures := buildSignatures(before, bs)

	n := len(after)
	literalStart := 0
	windowStart := 0

	var rc rollingChecksum

	if n >= bs {
		rc.full(after[0:bs])
	}

	for windowStart+bs <= n {
		window := after[windowStart : windowStart+bs]

		if idx, ok := matchBlock(signatures, rc.value(), window, before, bs); ok {
			if literalStart < windowStart {
				writeLiteral(&buf, after[literalStart:windowStart])
			}

			writeCopy(&buf, idx)

			windowStart += bs
			literalStart = windowStart

			if windowStart+bs <= n {
				rc.full(after[windowStart : windowStart+bs])
			}

			continue
		}

		if windowStart+bs < n {
			rc.roll(after[windowStart+1], after[windowStart+bs])
		}

		windowStart++
	}

	if literalStart < n {
		writeLiteral(&buf, after[literalStart:n])
	}

	return buf.Bytes(), nil
}

func buildSignatures(before []byte, bs int) map[uint32][]blockSignature {
	sig := make(map[uint32][]blockSignature)

	var rc rollingChecksum

	for start, idx := 0, 0; start < len(before); start, idx = start+bs, idx+1 {
		end := start + bs
		if end > len(before) {
			end = len(before)
		}

		block := before[start:end]
		weak := rc.full(block)

		sig[weak] = append(sig[weak], blockSignature{
			index:  idx,
			length: len(block),
			strong: xxh3.Hash128(block),
		})
	}

	return sig
}

func matchBlock(
	signatures map[uint32][]blockSignature,
	weak uint32,
	window []byte,
	before []byte,
	bs int,
) (int, bool) {
	candidates, ok := signatures[weak]
	if !ok {
		return 0, false
	}

	strong := xxh3.Hash128(window)

	for _, cand := range candidates {
		if cand.length != len(window) || cand.strong != strong {
			continue
		}

		start := cand.index * bs
		if bytes.Equal(window, before[start:start+cand.length]) {
			return cand.index, true
		}
	}

	return 0, false
}

func writeLiteral(buf *bytes.Buffer, data []byte) {
	buf.WriteByte(opLiteral)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf.Write(lenBuf[:])
	buf.Write(data)
}

func writeCopy(buf *bytes.Buffer, blockIndex int) {
	buf.WriteByte(opCopy)

	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], uint32(blockIndex))
	buf.Write(idxBuf[:])
}

func (c *rollingHashCodec) Decode(before, delta []byte) ([]byte, error) {
	bs := blockSizeFor(len(before))

	var out bytes.Buffer

	pos := 0
	for pos < len(delta) {
		tag := delta[pos]
		pos++

		switch tag {
		case opLiteral:
			if pos+4 > len(delta) {
				return nil, truncated()
			}

			length := int(binary.BigEndian.Uint32(delta[pos : pos+4]))
			pos += 4

			if pos+length > len(delta) {
				return nil, truncated()
			}

			out.Write(delta[pos : pos+length])
			pos += length

		case opCopy:
			if pos+4 > len(delta) {
				return nil, truncated()
			}

			idx := int(binary.BigEndian.Uint32(delta[pos : pos+4]))
			pos += 4

			if bs == 0 {
				return nil, ferr.Errorf(
					"%w: copy op references block %d but base is empty",
					ferr.ErrMismatchedBase,
					idx,
				)
			}

			start := idx * bs
			end := start + bs
			if end > len(before) {
				end = len(before)
			}

			if start >= len(before) || start >= end {
				return nil, ferr.Errorf(
					"%w: copy op references block %d outside base of length %d",
					ferr.ErrMismatchedBase,
					idx,
					len(before),
				)
			}

			out.Write(before[start:end])

		default:
			return nil, ferr.Errorf(
				"%w: unknown rolling-hash op tag %d",
				ferr.ErrCorruptDelta,
				tag,
			)
		}
	}

	return out.Bytes(), nil
}

func truncated() error {
	return ferr.Errorf("%w: truncated rolling-hash delta", ferr.ErrCorruptDelta)
}
