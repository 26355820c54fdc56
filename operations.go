package xccproxy

import (
	"context"

	"xccproxy/outcome"
	"xccproxy/peer"
)

const peerService = peer.ServiceName

// Continuation names, one per operation.
const (
	ContQueryGreeting           = "query_greeting_callback"
	ContChangeGreeting          = "change_greeting_callback"
	ContQuerySignerAccount      = "query_get_signer_account_id_callback"
	ContQueryCurrentAccount     = "query_get_current_account_id_callback"
	ContQueryPredecessorAccount = "query_get_predecessor_account_id_callback"
)

var (
	queryGreeting = outcome.Text("query_greeting",
		"there was an error contacting the greeter")
	changeGreeting = outcome.Status("change_greeting",
		"set_greeting was successful", "set_greeting failed")
	querySigner = outcome.Text("query_signer_account_id",
		"there was an error asking the greeter for the signer account")
	queryCurrent = outcome.Text("query_current_account_id",
		"there was an error asking the greeter for its account")
	queryPredecessor = outcome.Text("query_predecessor_account_id",
		"there was an error asking the greeter for the predecessor account")
)

// QueryGreeting resolves to the peer's greeting, "" when the peer failed.
func (p *Proxy) QueryGreeting(ctx context.Context) *Pending[string] {
	return forward(ctx, p, peer.MethodGetGreeting, ContQueryGreeting,
		&peer.GetGreetingReq{}, &peer.GetGreetingResp{},
		func(r *peer.GetGreetingResp) string {
			return r.Greeting
		}, queryGreeting)
}

// ChangeGreeting resolves to true once the peer stored greeting, false when
// it did not.
func (p *Proxy) ChangeGreeting(ctx context.Context, greeting string) *Pending[bool] {
	return forward(ctx, p, peer.MethodSetGreeting, ContChangeGreeting,
		&peer.SetGreetingReq{Message: greeting}, &peer.SetGreetingResp{},
		func(r *peer.SetGreetingResp) bool {
			return true
		}, changeGreeting)
}

// QuerySignerAccountID resolves to the account that signed the chain of calls
// as the peer saw it.
func (p *Proxy) QuerySignerAccountID(ctx context.Context) *Pending[string] {
	return p.queryAccount(ctx, peer.MethodGetSignerAccountID, ContQuerySignerAccount, querySigner)
}

// QueryCurrentAccountID resolves to the peer's own account.
func (p *Proxy) QueryCurrentAccountID(ctx context.Context) *Pending[string] {
	return p.queryAccount(ctx, peer.MethodGetCurrentAccountID, ContQueryCurrentAccount, queryCurrent)
}

// QueryPredecessorAccountID resolves to the peer's immediate caller, the
// proxy itself.
func (p *Proxy) QueryPredecessorAccountID(ctx context.Context) *Pending[string] {
	return p.queryAccount(ctx, peer.MethodGetPredecessorAccountID, ContQueryPredecessorAccount, queryPredecessor)
}

func (p *Proxy) queryAccount(ctx context.Context, method, cont string, n outcome.Normalizer[string]) *Pending[string] {
	return forward(ctx, p, method, cont, &peer.AccountIDReq{}, &peer.AccountIDResp{},
		func(r *peer.AccountIDResp) string {
			return r.AccountID
		}, n)
}
