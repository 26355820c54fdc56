package snappy

import (
	"bytes"
	"io"

	"xccproxy/rpc/compress"

	"github.com/golang/snappy"
)

var _ compress.Compressor = Compressor{}

// Compressor implements the Compressor interface with the snappy framing format
type Compressor struct{}

func (Compressor) Code() byte {
	return 3
}

func (Compressor) Compress(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	w := snappy.NewBufferedWriter(buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	// Close must be called by hand, not deferred: the buffered tail is only flushed on Close
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Compressor) Uncompress(data []byte) ([]byte, error) {
	return io.ReadAll(snappy.NewReader(bytes.NewReader(data)))
}
