package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandDemand(t *testing.T) {
	tests := []struct {
		name    string
		dist    Grid
		rate    float64
		want    Grid
		wantErr bool
	}{
		{
			name: "example workload",
			dist: Grid{{0.25, 0.5}, {0.25, 0.25}},
			rate: 16,
			want: Grid{{4, 8}, {4, 4}},
		},
		{
			name: "zero rate",
			dist: Grid{{0.5, 0.5}},
			rate: 0,
			want: Grid{{0, 0}},
		},
		{
			name: "non-normalized distribution is not rescaled",
			dist: Grid{{0.5, 0.5}, {0.5, 0.5}},
			rate: 2,
			want: Grid{{1, 1}, {1, 1}},
		},
		{
			name:    "negative rate",
			dist:    Grid{{1}},
			rate:    -1,
			wantErr: true,
		},
		{
			name:    "NaN rate",
			dist:    Grid{{1}},
			rate:    math.NaN(),
			wantErr: true,
		},
		{
			name:    "empty distribution",
			dist:    nil,
			rate:    1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandDemand(tt.dist, tt.rate)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDomain)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckNormalized(t *testing.T) {
	sum, ok := CheckNormalized(Grid{{0.25, 0.5}, {0.25, 0.25}}, 1e-6)
	assert.InDelta(t, 1.25, sum, 1e-12)
	assert.False(t, ok)

	sum, ok = CheckNormalized(Grid{{0.1, 0.2}, {0.3, 0.4}}, 1e-6)
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.True(t, ok)
}
