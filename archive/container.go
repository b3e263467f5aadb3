package archive

import (
	"bytes"
	"encoding/binary"

	"github.com/dolphin-foss/files-diff/internal/ferr"
	"github.com/dolphin-foss/files-diff/patch"
)

// Magic is the 4-byte tag at the start of every serialized PatchSet.
// See the version 1 schema in SPEC_FULL.md §6.3.
const Magic = "FDS1"

// opTag is the on-wire discriminant for an Entry's Operation, matching
// OperationKind numerically.
type opTag = OperationKind

// MarshalBinary serializes ps per the version 1 patch set container
// schema: magic, entry_count, then each entry as
// path_len(4 LE) + path + op_tag(1) + op_body. A Modified op_body is a
// full inline Patch container; since patch.MarshalBinary's own
// payload_len field makes that container self-delimiting, no extra
// length prefix is needed around it.
func (ps *PatchSet) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(Magic)

	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(ps.Entries)))
	buf.Write(countBuf[:])

	for _, e := range ps.Entries {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(e.Path)))
		buf.Write(lenBuf[:])
		buf.WriteString(e.Path)

		buf.WriteByte(byte(e.Operation.Kind))

		switch e.Operation.Kind {
		case OperationModified:
			body, err := e.Operation.Patch.MarshalBinary()
			if err != nil {
				return nil, err
			}

			buf.Write(body)

		case OperationAdded:
			var addedLenBuf [8]byte
			binary.LittleEndian.PutUint64(addedLenBuf[:], uint64(len(e.Operation.Added)))
			buf.Write(addedLenBuf[:])
			buf.Write(e.Operation.Added)

		case OperationDeleted, OperationUnchanged:
			// empty op_body

		default:
			return nil, ferr.Errorf(
				"%w: unsupported operation kind %d for path %q",
				ferr.ErrUnsupportedAlgorithm,
				e.Operation.Kind,
				e.Path,
			)
		}
	}

	return buf.Bytes(), nil
}

// Unmarshal deserializes a PatchSet from its version 1 container
// bytes.
func Unmarshal(b []byte) (*PatchSet, error) {
	if len(b) < 4+8 {
		return nil, ferr.Errorf("%w: patch set container shorter than header", ferr.ErrCorruptFormat)
	}

	if !bytes.Equal(b[0:4], []byte(Magic)) {
		return nil, ferr.Errorf("%w: bad magic %q", ferr.ErrCorruptFormat, b[0:4])
	}

	pos := 4

	entryCount := binary.LittleEndian.Uint64(b[pos : pos+8])
	pos += 8

	entries := make([]Entry, 0, entryCount)

	for i := uint64(0); i < entryCount; i++ {
		if len(b)-pos < 4 {
			return nil, ferr.Errorf("%w: truncated entry path length", ferr.ErrCorruptFormat)
		}

		pathLen := binary.LittleEndian.Uint32(b[pos : pos+4])
		pos += 4

		if uint64(len(b)-pos) < uint64(pathLen) {
			return nil, ferr.Errorf("%w: truncated entry path", ferr.ErrCorruptFormat)
		}

		path := string(b[pos : pos+int(pathLen)])
		pos += int(pathLen)

		if len(b)-pos < 1 {
			return nil, ferr.Errorf("%w: truncated entry op tag", ferr.ErrCorruptFormat)
		}

		kind := opTag(b[pos])
		pos++

		entry := Entry{Path: path}

		switch kind {
		case OperationModified:
			p, consumed, err := unmarshalPatchPrefix(b[pos:])
			if err != nil {
				return nil, err
			}

			entry.Operation = Operation{Kind: OperationModified, Patch: p}
			pos += consumed

		case OperationAdded:
			if len(b)-pos < 8 {
				return nil, ferr.Errorf("%w: truncated added-entry length", ferr.ErrCorruptFormat)
			}

			addedLen := binary.LittleEndian.Uint64(b[pos : pos+8])
			pos += 8

			if uint64(len(b)-pos) < addedLen {
				return nil, ferr.Errorf("%w: truncated added-entry payload", ferr.ErrCorruptFormat)
			}

			added := make([]byte, addedLen)
			copy(added, b[pos:pos+int(addedLen)])
			pos += int(addedLen)

			entry.Operation = Operation{Kind: OperationAdded, Added: added}

		case OperationDeleted:
			entry.Operation = Operation{Kind: OperationDeleted}

		case OperationUnchanged:
			entry.Operation = Operation{Kind: OperationUnchanged}

		default:
			return nil, ferr.Errorf(
				"%w: unsupported operation tag %d for path %q",
				ferr.ErrUnsupportedAlgorithm,
				byte(kind),
				path,
			)
		}

		entries = append(entries, entry)
	}

	if uint64(len(entries)) != entryCount {
		return nil, ferr.Errorf("%w: entry count mismatch", ferr.ErrCorruptFormat)
	}

	return newPatchSet(entries)
}

// unmarshalPatchPrefix parses a single Patch container occupying the
// front of b, ignoring any trailing bytes that belong to the next
// entry, and reports how many bytes it consumed. It reuses
// patch.Unmarshal's own validation by first determining the payload
// length from the fixed-size header, then handing exactly that many
// bytes to patch.Unmarshal.
func unmarshalPatchPrefix(b []byte) (*patch.Patch, int, error) {
	const fixedHeaderLen = 4 + 1 + 1 + 1 + 16 + 16 // magic+deltaTag+compressTag+digestTag+before+after

	if len(b) < fixedHeaderLen+8 {
		return nil, 0, ferr.Errorf("%w: truncated embedded patch header", ferr.ErrCorruptFormat)
	}

	payloadLen := binary.LittleEndian.Uint64(b[fixedHeaderLen : fixedHeaderLen+8])
	total := fixedHeaderLen + 8 + int(payloadLen)

	if total < 0 || len(b) < total {
		return nil, 0, ferr.Errorf("%w: truncated embedded patch payload", ferr.ErrCorruptFormat)
	}

	p, err := patch.Unmarshal(b[:total])
	if err != nil {
		return nil, 0, err
	}

	return p, total, nil
}
