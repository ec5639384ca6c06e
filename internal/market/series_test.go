package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(day int) time.Time {
	return time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeSortsOutOfOrder(t *testing.T) {
	s := &Series{Name: "t", Bars: []Bar{
		{Date: d(3), Close: 3},
		{Date: d(1), Close: 1},
		{Date: d(2), Close: 2},
	}}
	s.Normalize()

	require.NoError(t, s.Validate())
	assert.Equal(t, []float64{1, 2, 3}, s.Closes())
}

func TestNormalizeDedupeKeepsLast(t *testing.T) {
	s := &Series{Name: "t", Bars: []Bar{
		{Date: d(1), Close: 10},
		{Date: d(2), Close: 20},
		{Date: d(2), Close: 21},
		{Date: d(3), Close: 30},
	}}
	s.Normalize()

	require.Equal(t, 3, s.Len())
	assert.InDelta(t, 21, s.Bars[1].Close, 1e-9, "重复日期保留最后一条")
	require.NoError(t, s.Validate())
}

func TestValidateRejectsDuplicates(t *testing.T) {
	s := &Series{Name: "t", Bars: []Bar{
		{Date: d(1), Close: 1},
		{Date: d(1), Close: 2},
	}}
	err := s.Validate()
	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 2, dataErr.Row)
}

func TestValidateEmpty(t *testing.T) {
	var s *Series
	assert.Error(t, s.Validate())
	assert.Error(t, (&Series{}).Validate())
	assert.Zero(t, s.Len())
}

func TestCloneIsIndependent(t *testing.T) {
	s := &Series{Name: "t", Bars: []Bar{{Date: d(1), Close: 1}, {Date: d(2), Close: 2}}}
	c := s.Clone()
	c.Bars[0].Close = 99

	assert.InDelta(t, 1, s.Bars[0].Close, 1e-9)
	assert.Equal(t, s.Name, c.Name)
	assert.Equal(t, s.Dates(), c.Dates())
}
