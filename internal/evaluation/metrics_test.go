package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []int
		retrieved []int
		k         int
		want      float64
	}{
		{
			name:      "all relevant found",
			relevant:  []int{1, 2},
			retrieved: []int{1, 2, 3},
			k:         10,
			want:      1.0,
		},
		{
			name:      "half relevant found",
			relevant:  []int{1, 2},
			retrieved: []int{1, 5, 6},
			k:         10,
			want:      0.5,
		},
		{
			name:      "relevant outside top k",
			relevant:  []int{3},
			retrieved: []int{1, 2, 3},
			k:         2,
			want:      0.0,
		},
		{
			name:      "empty relevant",
			relevant:  nil,
			retrieved: []int{1, 2},
			k:         10,
			want:      0.0,
		},
		{
			name:      "empty retrieved",
			relevant:  []int{1},
			retrieved: nil,
			k:         10,
			want:      0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RecallAtK(tt.relevant, tt.retrieved, tt.k), 1e-9)
		})
	}
}

func TestMRRAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []int
		retrieved []int
		k         int
		want      float64
	}{
		{
			name:      "relevant at rank one",
			relevant:  []int{1},
			retrieved: []int{1, 2, 3},
			k:         10,
			want:      1.0,
		},
		{
			name:      "relevant at rank three",
			relevant:  []int{3},
			retrieved: []int{1, 2, 3},
			k:         10,
			want:      1.0 / 3.0,
		},
		{
			name:      "first relevant wins",
			relevant:  []int{2, 3},
			retrieved: []int{1, 2, 3},
			k:         10,
			want:      0.5,
		},
		{
			name:      "relevant outside top k",
			relevant:  []int{3},
			retrieved: []int{1, 2, 3},
			k:         2,
			want:      0.0,
		},
		{
			name:      "no relevant found",
			relevant:  []int{9},
			retrieved: []int{1, 2, 3},
			k:         10,
			want:      0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MRRAtK(tt.relevant, tt.retrieved, tt.k), 1e-9)
		})
	}
}
