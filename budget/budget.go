// Package budget meters the computational allowance of one remote call.
package budget

import (
	"context"
	"strconv"
	"sync/atomic"

	"xccproxy/internal/errs"
)

// Gas is the unit of computational allowance.
type Gas uint64

const (
	GGas Gas = 1_000_000_000
	TGas Gas = 1_000 * GGas

	// DefaultCeiling is what every proxied call may burn on the peer.
	DefaultCeiling = 9 * TGas
)

// Metadata keys for the budget and the attached value transfer.
const (
	MetaBudget  = "budget"
	MetaDeposit = "deposit"
)

func (g Gas) String() string {
	return strconv.FormatUint(uint64(g), 10)
}

func Parse(s string) (Gas, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Gas(v), nil
}

// Meter counts the gas burnt by one call against its prepaid limit.
type Meter struct {
	limit Gas
	used  atomic.Uint64
}

func NewMeter(limit Gas) *Meter {
	return &Meter{limit: limit}
}

// Charge burns g. Once the limit is crossed every later charge fails too.
func (m *Meter) Charge(g Gas) error {
	used := m.used.Add(uint64(g))
	if used > uint64(m.limit) {
		return errs.BudgetExceeded(used, uint64(m.limit))
	}
	return nil
}

func (m *Meter) Used() Gas {
	return Gas(m.used.Load())
}

func (m *Meter) Limit() Gas {
	return m.limit
}

func (m *Meter) Remaining() Gas {
	used := m.Used()
	if used >= m.limit {
		return 0
	}
	return m.limit - used
}

type meterKey struct{}

func WithMeter(ctx context.Context, m *Meter) context.Context {
	return context.WithValue(ctx, meterKey{}, m)
}

func MeterFromContext(ctx context.Context) (*Meter, bool) {
	m, ok := ctx.Value(meterKey{}).(*Meter)
	return m, ok
}

// Charge burns g on the meter in ctx. Calls without a meter are not metered.
func Charge(ctx context.Context, g Gas) error {
	m, ok := MeterFromContext(ctx)
	if !ok {
		return nil
	}
	return m.Charge(g)
}
