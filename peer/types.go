// Package peer declares the remote greeter service the proxy forwards to.
package peer

import "context"

const ServiceName = "greeter"

// Method names as they travel on the wire.
const (
	MethodGetGreeting             = "GetGreeting"
	MethodSetGreeting             = "SetGreeting"
	MethodGetSignerAccountID      = "GetSignerAccountID"
	MethodGetCurrentAccountID     = "GetCurrentAccountID"
	MethodGetPredecessorAccountID = "GetPredecessorAccountID"
)

type GetGreetingReq struct{}

type GetGreetingResp struct {
	Greeting string `json:"greeting"`
}

type SetGreetingReq struct {
	Message string `json:"message"`
}

type SetGreetingResp struct{}

type AccountIDReq struct{}

type AccountIDResp struct {
	AccountID string `json:"account_id"`
}

// GreeterClient is bound to a remote greeter by rpc.Client.InitService.
type GreeterClient struct {
	GetGreeting             func(ctx context.Context, req *GetGreetingReq) (*GetGreetingResp, error)
	SetGreeting             func(ctx context.Context, req *SetGreetingReq) (*SetGreetingResp, error)
	GetSignerAccountID      func(ctx context.Context, req *AccountIDReq) (*AccountIDResp, error)
	GetCurrentAccountID     func(ctx context.Context, req *AccountIDReq) (*AccountIDResp, error)
	GetPredecessorAccountID func(ctx context.Context, req *AccountIDReq) (*AccountIDResp, error)
}

func (g *GreeterClient) Name() string {
	return ServiceName
}
