package patch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dolphin-foss/files-diff/compressor"
	"github.com/dolphin-foss/files-diff/deltacodec"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	before := []byte("hello world")
	after := []byte("hello brave new world")

	p, err := Diff(before, after, deltacodec.SuffixArrayBidi, compressor.DictionaryLevel21)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	b, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	got, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if diff := cmp.Diff(p, got); diff != "" {
		t.Fatalf("Unmarshal(Marshal(p)) != p (-want +got):\n%s", diff)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	before := []byte("hello world")
	after := []byte("hello brave new world")

	p1, err := Diff(before, after, deltacodec.RollingHash, compressor.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	p2, err := Diff(before, after, deltacodec.RollingHash, compressor.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	b1, _ := p1.MarshalBinary()
	b2, _ := p2.MarshalBinary()

	if string(b1) != string(b2) {
		t.Fatal("expected identical bytes from two diffs of the same inputs")
	}
}

func TestUnmarshalBadMagic(t *testing.T) {
	if _, err := Unmarshal([]byte("XXXX12345678901234567890123456789012345678901234567890")); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestUnmarshalTruncated(t *testing.T) {
	if _, err := Unmarshal([]byte("FDP1")); err == nil {
		t.Fatal("expected error for truncated container")
	}
}

func TestUnmarshalUnknownAlgorithm(t *testing.T) {
	before := []byte("hello world")
	after := []byte("hello brave new world")

	p, err := Diff(before, after, deltacodec.RollingHash, compressor.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	b, _ := p.MarshalBinary()
	b[4] = 0xFF // delta_tag

	if _, err := Unmarshal(b); err == nil {
		t.Fatal("expected error for unknown delta algorithm tag")
	}
}

func TestUnmarshalTruncatedPayload(t *testing.T) {
	before := []byte("hello world")
	after := []byte("hello brave new world")

	p, err := Diff(before, after, deltacodec.RollingHash, compressor.None)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	b, _ := p.MarshalBinary()

	if _, err := Unmarshal(b[:len(b)-1]); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}
