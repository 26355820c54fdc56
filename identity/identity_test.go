package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromMeta(t *testing.T) {
	testCases := []struct {
		name string

		meta map[string]string
		want Context
	}{
		{
			name: "chained call",
			meta: map[string]string{
				MetaSigner:      "alice.test",
				MetaPredecessor: "proxy.test",
			},
			want: Context{Signer: "alice.test", Predecessor: "proxy.test", Current: "hello.test"},
		},
		{
			name: "no metadata",
			meta: nil,
			want: Context{Current: "hello.test"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FromMeta(tc.meta, "hello.test"))
		})
	}
}

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	want := Context{Signer: "alice.test", Predecessor: "alice.test", Current: "proxy.test"}
	got, ok := FromContext(With(context.Background(), want))
	assert.True(t, ok)
	assert.Equal(t, want, got)
	assert.True(t, AccountID("").Empty())
}
