package rpc

import "context"

type metaKey struct{}

// WithMeta attaches outgoing request metadata to ctx. Values already in ctx
// are kept unless overwritten by kv.
func WithMeta(ctx context.Context, kv map[string]string) context.Context {
	old := MetaFromContext(ctx)
	meta := make(map[string]string, len(old)+len(kv))
	for k, v := range old {
		meta[k] = v
	}
	for k, v := range kv {
		meta[k] = v
	}
	return context.WithValue(ctx, metaKey{}, meta)
}

func MetaFromContext(ctx context.Context) map[string]string {
	meta, _ := ctx.Value(metaKey{}).(map[string]string)
	return meta
}
