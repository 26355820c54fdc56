package peer

import (
	"context"
	"sync"

	"xccproxy/budget"
	"xccproxy/identity"
	"xccproxy/internal/errs"

	"github.com/gotomicro/ekit/bean/option"
	"github.com/rs/zerolog"
)

const (
	DefaultGreeting = "Hello"

	// gas burnt per stored byte of greeting
	StorageCost = 10 * budget.GGas
	ReadCost    = budget.GGas
)

// Greeter is the reference peer: it stores one greeting and answers who
// called it.
type Greeter struct {
	mutex    sync.RWMutex
	greeting string
	logger   zerolog.Logger
}

func GreeterWithGreeting(greeting string) option.Option[Greeter] {
	return func(g *Greeter) {
		g.greeting = greeting
	}
}

func GreeterWithLogger(logger zerolog.Logger) option.Option[Greeter] {
	return func(g *Greeter) {
		g.logger = logger
	}
}

func NewGreeter(opts ...option.Option[Greeter]) *Greeter {
	g := &Greeter{
		greeting: DefaultGreeting,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Greeter) Name() string {
	return ServiceName
}

func (g *Greeter) GetGreeting(ctx context.Context, req *GetGreetingReq) (*GetGreetingResp, error) {
	if err := budget.Charge(ctx, ReadCost); err != nil {
		return nil, err
	}
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return &GetGreetingResp{Greeting: g.greeting}, nil
}

// SetGreeting replaces the greeting. Storage is paid per byte, so a long
// enough greeting exhausts the budget and leaves the old one in place.
func (g *Greeter) SetGreeting(ctx context.Context, req *SetGreetingReq) (*SetGreetingResp, error) {
	if req.Message == "" {
		return nil, errs.ErrEmptyGreeting
	}
	if err := budget.Charge(ctx, StorageCost*budget.Gas(len(req.Message))); err != nil {
		return nil, err
	}
	g.mutex.Lock()
	g.greeting = req.Message
	g.mutex.Unlock()
	g.logger.Info().Str("greeting", req.Message).Msg("greeter: saving greeting")
	return &SetGreetingResp{}, nil
}

func (g *Greeter) GetSignerAccountID(ctx context.Context, req *AccountIDReq) (*AccountIDResp, error) {
	return g.account(ctx, func(c identity.Context) identity.AccountID {
		return c.Signer
	})
}

func (g *Greeter) GetCurrentAccountID(ctx context.Context, req *AccountIDReq) (*AccountIDResp, error) {
	return g.account(ctx, func(c identity.Context) identity.AccountID {
		return c.Current
	})
}

func (g *Greeter) GetPredecessorAccountID(ctx context.Context, req *AccountIDReq) (*AccountIDResp, error) {
	return g.account(ctx, func(c identity.Context) identity.AccountID {
		return c.Predecessor
	})
}

func (g *Greeter) account(ctx context.Context, pick func(identity.Context) identity.AccountID) (*AccountIDResp, error) {
	if err := budget.Charge(ctx, ReadCost); err != nil {
		return nil, err
	}
	c, _ := identity.FromContext(ctx)
	return &AccountIDResp{AccountID: string(pick(c))}, nil
}
