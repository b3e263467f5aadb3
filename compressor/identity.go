package compressor

func init() {
	register(None, identityCompressor{})
}

type identityCompressor struct{}

var _ Compressor = identityCompressor{}

func (identityCompressor) Compress(raw []byte) ([]byte, error) {
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (identityCompressor) Decompress(payload []byte) ([]byte, error) {
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}
