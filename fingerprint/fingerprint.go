// Package fingerprint computes the 128-bit content digest used
// throughout files-diff for accidental-corruption detection and for
// telling unchanged archive entries from modified ones. It is not a
// security primitive: MD5 is chosen for format compatibility and small
// size, not collision resistance.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"io"

	"github.com/dolphin-foss/files-diff/internal/bufpool"
)

// Size is the fixed length of a Fingerprint in bytes.
const Size = md5.Size

// DigestTagMD5 is the only digest tag current readers accept (see
// patch.Unmarshal). The format reserves the byte range for a future,
// stronger digest.
const DigestTagMD5 byte = 0x01

// Fingerprint is a 128-bit content digest. Equality is byte-equality.
type Fingerprint [Size]byte

// Of computes the Fingerprint of data.
func Of(data []byte) Fingerprint {
	h, repool := bufpool.GetMD5()
	defer repool()

	h.Write(data)

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// OfReader computes the Fingerprint of everything read from r.
func OfReader(r io.Reader) (Fingerprint, error) {
	h, repool := bufpool.GetMD5()
	defer repool()

	if _, err := io.Copy(h, r); err != nil {
		return Fingerprint{}, err
	}

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp, nil
}

// Equal reports whether two fingerprints are byte-identical.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f == other
}

// Bytes returns the fingerprint's raw 16 bytes.
func (f Fingerprint) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, f[:])
	return out
}

// FromBytes reads a Fingerprint from exactly Size bytes.
func FromBytes(b []byte) (Fingerprint, bool) {
	var fp Fingerprint
	if len(b) != Size {
		return fp, false
	}
	copy(fp[:], b)
	return fp, true
}

// String renders the fingerprint as lowercase hex, for diagnostics.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}
