// Package identity carries the accounts involved in one execution: who signed
// the originating request, who called directly, and who is running the code.
package identity

import "context"

// AccountID names an account. For a peer it is also its network address.
type AccountID string

func (a AccountID) String() string {
	return string(a)
}

func (a AccountID) Empty() bool {
	return a == ""
}

// Metadata keys used to carry the identities across the wire.
const (
	MetaSigner      = "signer"
	MetaPredecessor = "predecessor"
)

// Context is the execution identity of one call.
type Context struct {
	// account that started the chain of calls
	Signer AccountID
	// immediate caller
	Predecessor AccountID
	// account running the code
	Current AccountID
}

type ctxKey struct{}

func With(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (Context, bool) {
	c, ok := ctx.Value(ctxKey{}).(Context)
	return c, ok
}

// FromMeta rebuilds the caller side of the identity from request metadata.
// current is the account that received the request.
func FromMeta(meta map[string]string, current AccountID) Context {
	return Context{
		Signer:      AccountID(meta[MetaSigner]),
		Predecessor: AccountID(meta[MetaPredecessor]),
		Current:     current,
	}
}
