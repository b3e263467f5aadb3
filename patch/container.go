package patch

import (
	"bytes"
	"encoding/binary"

	"github.com/dolphin-foss/files-diff/compressor"
	"github.com/dolphin-foss/files-diff/deltacodec"
	"github.com/dolphin-foss/files-diff/fingerprint"
	"github.com/dolphin-foss/files-diff/internal/ferr"
)

// Magic is the 4-byte tag at the start of every serialized Patch. See
// the version 1 schema in SPEC_FULL.md §6.2.
const Magic = "FDP1"

const headerLen = 4 + 1 + 1 + 1 + fingerprint.Size + fingerprint.Size + 8

// MarshalBinary serializes p per the version 1 patch container schema.
// Serialization is deterministic: two semantically equal Patches
// produce identical bytes.
func (p *Patch) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, headerLen+len(p.Payload))

	buf = append(buf, Magic...)
	buf = append(buf, byte(p.DeltaAlgo))
	buf = append(buf, byte(p.CompressAlgo))
	buf = append(buf, fingerprint.DigestTagMD5)
	buf = append(buf, p.BeforeFingerprint[:]...)
	buf = append(buf, p.AfterFingerprint[:]...)

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(p.Payload)))
	buf = append(buf, lenBuf[:]...)

	buf = append(buf, p.Payload...)

	return buf, nil
}

// Unmarshal deserializes a Patch from its version 1 container bytes.
func Unmarshal(b []byte) (*Patch, error) {
	if len(b) < headerLen {
		return nil, ferr.Errorf("%w: patch container shorter than header", ferr.ErrCorruptFormat)
	}

	if !bytes.Equal(b[0:4], []byte(Magic)) {
		return nil, ferr.Errorf("%w: bad magic %q", ferr.ErrCorruptFormat, b[0:4])
	}

	pos := 4

	deltaTag := deltacodec.Algorithm(b[pos])
	pos++

	compressTag := compressor.Algorithm(b[pos])
	pos++

	digestTag := b[pos]
	pos++

	if digestTag != fingerprint.DigestTagMD5 {
		return nil, ferr.Errorf(
			"%w: unsupported digest tag %d",
			ferr.ErrUnsupportedAlgorithm,
			digestTag,
		)
	}

	if !deltaTag.Valid() {
		return nil, ferr.Errorf(
			"%w: unsupported delta algorithm tag %d",
			ferr.ErrUnsupportedAlgorithm,
			byte(deltaTag),
		)
	}

	if !compressTag.Valid() {
		return nil, ferr.Errorf(
			"%w: unsupported compression algorithm tag %d",
			ferr.ErrUnsupportedAlgorithm,
			byte(compressTag),
		)
	}

	before, ok := fingerprint.FromBytes(b[pos : pos+fingerprint.Size])
	if !ok {
		return nil, ferr.Errorf("%w: malformed before fingerprint", ferr.ErrCorruptFormat)
	}
	pos += fingerprint.Size

	after, ok := fingerprint.FromBytes(b[pos : pos+fingerprint.Size])
	if !ok {
		return nil, ferr.Errorf("%w: malformed after fingerprint", ferr.ErrCorruptFormat)
	}
	pos += fingerprint.Size

	payloadLen := binary.LittleEndian.Uint64(b[pos : pos+8])
	pos += 8

	if uint64(len(b)-pos) < payloadLen {
		return nil, ferr.Errorf("%w: truncated patch payload", ferr.ErrCorruptFormat)
	}

	payload := make([]byte, payloadLen)
	copy(payload, b[pos:pos+int(payloadLen)])

	return &Patch{
		DeltaAlgo:         deltaTag,
		CompressAlgo:      compressTag,
		BeforeFingerprint: before,
		AfterFingerprint:  after,
		Payload:           payload,
	}, nil
}
