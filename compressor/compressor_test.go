package compressor

import (
	"bytes"
	"testing"
)

func TestForKnownAlgorithms(t *testing.T) {
	for _, tag := range []Algorithm{None, DictionaryLevel21} {
		c, err := For(tag)
		if err != nil {
			t.Fatalf("For(%v): %v", tag, err)
		}

		if c == nil {
			t.Fatalf("For(%v) returned nil", tag)
		}
	}
}

func TestForUnknownAlgorithm(t *testing.T) {
	if _, err := For(Algorithm(0xFF)); err == nil {
		t.Fatal("expected error for unknown compression tag")
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	c := identityCompressor{}
	data := []byte("some raw delta bytes")

	compressed, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	if !bytes.Equal(compressed, data) {
		t.Fatal("identity compress must be a no-op")
	}

	decompressed, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	if !bytes.Equal(decompressed, data) {
		t.Fatal("identity decompress must be a no-op")
	}
}

func TestDictionaryLevel21RoundTrip(t *testing.T) {
	c := zstdCompressor{}
	data := bytes.Repeat([]byte("compress me please "), 200)

	compressed, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	decompressed, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	if !bytes.Equal(decompressed, data) {
		t.Fatal("zstd round trip mismatch")
	}
}

func TestDictionaryLevel21AchievesCompression(t *testing.T) {
	c := zstdCompressor{}
	data := bytes.Repeat([]byte{0}, 1<<20)

	compressed, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	if len(compressed) >= len(data) {
		t.Fatalf("expected compression of all-zero input, got %d >= %d", len(compressed), len(data))
	}
}

func TestDictionaryLevel21RejectsTruncatedFrame(t *testing.T) {
	c := zstdCompressor{}
	data := bytes.Repeat([]byte("truncate this please "), 50)

	compressed, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	truncated := compressed[:len(compressed)/2]

	if _, err := c.Decompress(truncated); err == nil {
		t.Fatal("expected error decompressing truncated zstd frame")
	}
}
