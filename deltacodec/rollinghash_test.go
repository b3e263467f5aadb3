package deltacodec

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/dolphin-foss/files-diff/internal/ferr"
)

func TestRollingHashRoundTripSmallEdit(t *testing.T) {
	before := []byte("the quick brown fox jumps over the lazy dog")
	after := []byte("the quick brown cat jumps over the lazy dog")

	codec := &rollingHashCodec{}

	delta, err := codec.Encode(before, after)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := codec.Decode(before, delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !bytes.Equal(got, after) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, after)
	}
}

func TestRollingHashIdentical(t *testing.T) {
	data := fixedRandomBytes(2048)

	codec := &rollingHashCodec{}

	delta, err := codec.Encode(data, data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := codec.Decode(data, delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !bytes.Equal(got, data) {
		t.Fatal("identical input/output round trip mismatch")
	}
}

func TestRollingHashLargeSimilarBlob(t *testing.T) {
	before := make([]byte, 1<<20)
	after := make([]byte, 1<<20)
	copy(after, before)

	copy(after[512:520], []byte("DEADBEEF"))

	codec := &rollingHashCodec{}

	delta, err := codec.Encode(before, after)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := codec.Decode(before, delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !bytes.Equal(got, after) {
		t.Fatal("large similar blob round trip mismatch")
	}

	if len(delta) >= len(after) {
		t.Fatalf("expected delta smaller than full blob: delta=%d after=%d", len(delta), len(after))
	}
}

func TestRollingHashEmptyBefore(t *testing.T) {
	codec := &rollingHashCodec{}

	delta, err := codec.Encode(nil, []byte("new content"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := codec.Decode(nil, delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !bytes.Equal(got, []byte("new content")) {
		t.Fatalf("got %q", got)
	}
}

func TestRollingHashEmptyAfter(t *testing.T) {
	codec := &rollingHashCodec{}
	before := []byte("some existing content")

	delta, err := codec.Encode(before, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := codec.Decode(before, delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(got) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(got))
	}
}

func TestRollingHashBothEmpty(t *testing.T) {
	codec := &rollingHashCodec{}

	delta, err := codec.Encode(nil, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := codec.Decode(nil, delta)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(got) != 0 {
		t.Fatal("expected empty output for empty/empty")
	}
}

func TestRollingHashCorruptTag(t *testing.T) {
	codec := &rollingHashCodec{}
	before := []byte("some base content of reasonable length")

	if _, err := codec.Decode(before, []byte{0xFF, 0, 0, 0, 0}); err == nil {
		t.Fatal("expected error for unknown op tag")
	}
}

func TestRollingHashMismatchedBase(t *testing.T) {
	codec := &rollingHashCodec{}

	// before is long enough that blockSizeFor(len(before)) picks a block
	// size well above minBlockSize (sqrt(1000) rounds to 32), so the
	// reused block below lands past a deliberately shrunk base.
	before := fixedRandomBytes(1000)

	bs := blockSizeFor(len(before))
	if bs <= minBlockSize {
		t.Fatalf("test setup: blockSizeFor(%d) = %d, want > %d", len(before), bs, minBlockSize)
	}

	// Block index 2 covers before[2*bs : 3*bs].
	blockStart := 2 * bs
	blockEnd := blockStart + bs
	reusedBlock := before[blockStart:blockEnd]

	var after bytes.Buffer
	after.WriteString("a literal prefix unrelated to any block in before, long enough to stand alone")
	after.Write(reusedBlock)
	after.WriteString("a literal suffix, also unrelated, padding the tail of the buffer")

	delta, err := codec.Encode(before, after.Bytes())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if !deltaHasCopyOp(t, delta) {
		t.Fatalf("test setup: expected Encode to emit a copy op referencing block %d", blockStart/bs)
	}

	// Decode against a base shorter than the referenced block's end: the
	// copy op must be rejected as MismatchedBase, not silently truncated.
	shrunkBase := before[:blockStart-1]

	if _, err := codec.Decode(shrunkBase, delta); err == nil {
		t.Fatal("expected error decoding against a base too short for the referenced block")
	} else if !ferr.IsMismatchedBase(err) {
		t.Fatalf("expected MismatchedBase error, got: %v", err)
	}
}

// deltaHasCopyOp walks a rolling-hash op stream structurally (tag,
// then its fixed-shape body) and reports whether any opCopy tag
// appears, without relying on the byte values inside literal runs.
func deltaHasCopyOp(t *testing.T, delta []byte) bool {
	t.Helper()

	pos := 0
	for pos < len(delta) {
		tag := delta[pos]
		pos++

		switch tag {
		case opLiteral:
			if pos+4 > len(delta) {
				t.Fatalf("malformed literal op in test delta at offset %d", pos)
			}

			length := int(binary.BigEndian.Uint32(delta[pos : pos+4]))
			pos += 4 + length

		case opCopy:
			if pos+4 > len(delta) {
				t.Fatalf("malformed copy op in test delta at offset %d", pos)
			}

			return true

		default:
			t.Fatalf("unrecognized op tag %d in test delta at offset %d", tag, pos-1)
		}
	}

	return false
}

func fixedRandomBytes(n int) []byte {
	r := rand.New(rand.NewSource(42))
	b := make([]byte, n)
	r.Read(b)
	return b
}
