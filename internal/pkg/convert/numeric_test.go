package convert

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat64(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
	}{
		{"float64", 1.5, 1.5},
		{"int", 42, 42},
		{"int64", int64(-7), -7},
		{"string", " 3.25 ", 3.25},
		{"json number", json.Number("2.5"), 2.5},
		{"wrapped float slice", []float64{9.5}, 9.5},
		{"wrapped any slice", []any{"4.5"}, 4.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Float64(tc.in)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestFloat64Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
		{"text", "abc"},
		{"multi element slice", []float64{1, 2}},
		{"struct", struct{}{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Float64(tc.in)
			assert.Error(t, err)
		})
	}
}

func TestToFloat64Lenient(t *testing.T) {
	assert.InDelta(t, 1.5, ToFloat64("1.5"), 1e-12)
	assert.Zero(t, ToFloat64("abc"))
	assert.Zero(t, ToFloat64(nil))
}
