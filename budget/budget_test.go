package budget

import (
	"context"
	"testing"

	"xccproxy/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeter_Charge(t *testing.T) {
	testCases := []struct {
		name          string
		limit         Gas
		charges       []Gas
		wantErr       error
		wantRemaining Gas
	}{
		{
			name:          "within limit",
			limit:         9 * TGas,
			charges:       []Gas{TGas, 2 * TGas},
			wantRemaining: 6 * TGas,
		},
		{
			name:          "exactly the limit",
			limit:         3 * TGas,
			charges:       []Gas{TGas, 2 * TGas},
			wantRemaining: 0,
		},
		{
			name:          "exceeded",
			limit:         TGas,
			charges:       []Gas{TGas, GGas},
			wantErr:       errs.ErrBudgetExceeded,
			wantRemaining: 0,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMeter(tc.limit)
			var err error
			for _, g := range tc.charges {
				if err = m.Charge(g); err != nil {
					break
				}
			}
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantRemaining, m.Remaining())
		})
	}
}

func TestCharge_Context(t *testing.T) {
	// no meter, no limit
	require.NoError(t, Charge(context.Background(), 100*TGas))

	m := NewMeter(TGas)
	ctx := WithMeter(context.Background(), m)
	require.NoError(t, Charge(ctx, GGas))
	assert.Equal(t, GGas, m.Used())
	assert.ErrorIs(t, Charge(ctx, TGas), errs.ErrBudgetExceeded)
}

func TestParse(t *testing.T) {
	g, err := Parse(DefaultCeiling.String())
	require.NoError(t, err)
	assert.Equal(t, DefaultCeiling, g)
	assert.Equal(t, Gas(9_000_000_000_000), g)

	_, err = Parse("-1")
	assert.Error(t, err)
}
