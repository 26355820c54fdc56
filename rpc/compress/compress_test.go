package compress_test

import (
	"bytes"
	"testing"

	"xccproxy/rpc/compress"
	"xccproxy/rpc/compress/gzip"
	"xccproxy/rpc/compress/lz4"
	"xccproxy/rpc/compress/snappy"
	"xccproxy/rpc/compress/zlib"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressors(t *testing.T) {
	payloads := map[string][]byte{
		"greeting": []byte(`{"greeting":"hello"}`),
		"empty":    {},
		"repeated": bytes.Repeat([]byte("set_greeting "), 512),
	}
	testCases := []struct {
		name     string
		c        compress.Compressor
		wantCode byte
	}{
		{name: "do nothing", c: compress.DoNothingCompressor{}, wantCode: 0},
		{name: "gzip", c: gzip.Compressor{}, wantCode: 1},
		{name: "lz4", c: lz4.Compressor{}, wantCode: 2},
		{name: "snappy", c: snappy.Compressor{}, wantCode: 3},
		{name: "zlib", c: zlib.Compressor{}, wantCode: 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantCode, tc.c.Code())
			for name, data := range payloads {
				compressed, err := tc.c.Compress(data)
				require.NoError(t, err, name)
				res, err := tc.c.Uncompress(compressed)
				require.NoError(t, err, name)
				assert.Equal(t, len(data), len(res), name)
				assert.True(t, bytes.Equal(data, res), name)
			}
		})
	}
}
