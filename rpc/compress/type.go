package compress

// Compressor -> compression algorithm abstract
type Compressor interface {
	Code() byte
	Compress(data []byte) ([]byte, error)
	Uncompress(data []byte) ([]byte, error)
}

// DoNothingCompressor is the default, so callers never deal with a nil Compressor
type DoNothingCompressor struct{}

func (d DoNothingCompressor) Code() byte {
	return 0
}

func (d DoNothingCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (d DoNothingCompressor) Uncompress(data []byte) ([]byte, error) {
	return data, nil
}
