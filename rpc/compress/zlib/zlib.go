package zlib

import (
	"bytes"
	"compress/zlib"
	"io"

	"xccproxy/rpc/compress"
)

var _ compress.Compressor = Compressor{}

// Compressor implements the Compressor interface
type Compressor struct{}

func (Compressor) Code() byte {
	return 4
}

func (Compressor) Compress(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	w := zlib.NewWriter(buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	// Close must be called by hand, not deferred: the tail is only flushed on Close
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Compressor) Uncompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()
	return io.ReadAll(r)
}
