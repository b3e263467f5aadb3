package fingerprint

import (
	"bytes"
	"strings"
	"testing"
)

func TestOfDeterministic(t *testing.T) {
	a := Of([]byte("hello world"))
	b := Of([]byte("hello world"))

	if !a.Equal(b) {
		t.Fatal("expected identical fingerprints for identical input")
	}
}

func TestOfDiffers(t *testing.T) {
	a := Of([]byte("hello world"))
	b := Of([]byte("hello brave new world"))

	if a.Equal(b) {
		t.Fatal("expected different fingerprints for different input")
	}
}

func TestOfReaderMatchesOf(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	want := Of(data)

	got, err := OfReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OfReader: %v", err)
	}

	if !got.Equal(want) {
		t.Fatalf("OfReader() = %v, want %v", got, want)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	fp := Of([]byte("round trip me"))

	back, ok := FromBytes(fp.Bytes())
	if !ok {
		t.Fatal("FromBytes rejected a valid fingerprint")
	}

	if !back.Equal(fp) {
		t.Fatal("FromBytes(fp.Bytes()) != fp")
	}
}

func TestFromBytesWrongLength(t *testing.T) {
	if _, ok := FromBytes([]byte{1, 2, 3}); ok {
		t.Fatal("expected FromBytes to reject short input")
	}
}

func TestStringIsHex(t *testing.T) {
	fp := Of([]byte("x"))
	s := fp.String()

	if len(s) != Size*2 {
		t.Fatalf("expected %d hex chars, got %d (%q)", Size*2, len(s), s)
	}

	if strings.ToLower(s) != s {
		t.Fatalf("expected lowercase hex, got %q", s)
	}
}
