package follow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrectBands(t *testing.T) {
	testCases := []struct {
		err    int
		intent Intent
	}{
		{0, Straight},
		{399, Straight},
		{400, MildRight},
		{1399, MildRight},
		{1400, HardRight},
		{2000, HardRight},
		{-399, Straight},
		{-400, MildLeft},
		{-1400, HardLeft},
	}
	for _, tc := range testCases {
		t.Run(tc.intent.String(), func(t *testing.T) {
			c := NewController(DefaultConfig())
			require.Equal(t, tc.intent, c.Correct(tc.err))
		})
	}
}

func TestCorrectHysteresis(t *testing.T) {
	testCases := []struct {
		name   string
		errs   []int
		expect []Intent
	}{
		{
			name:   "stay mild inside band",
			errs:   []int{450, 300, 250, 249},
			expect: []Intent{MildRight, MildRight, MildRight, Straight},
		},
		{
			name:   "stay hard inside band",
			errs:   []int{1500, 1300, 1250, 1249},
			expect: []Intent{HardRight, HardRight, HardRight, MildRight},
		},
		{
			name:   "hard drops to straight",
			errs:   []int{1500, 100},
			expect: []Intent{HardRight, Straight},
		},
		{
			name:   "sign change ignores hysteresis",
			errs:   []int{450, -300},
			expect: []Intent{MildRight, Straight},
		},
		{
			name:   "left side",
			errs:   []int{-1500, -1260, -500, -260, -200},
			expect: []Intent{HardLeft, HardLeft, MildLeft, MildLeft, Straight},
		},
		{
			name:   "oscillation at boundary",
			errs:   []int{400, 390, 410, 380, 420},
			expect: []Intent{MildRight, MildRight, MildRight, MildRight, MildRight},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewController(DefaultConfig())
			for i, e := range tc.errs {
				require.Equalf(t, tc.expect[i], c.Correct(e), "step %d", i)
			}
		})
	}
}

func TestReset(t *testing.T) {
	c := NewController(DefaultConfig())
	c.Correct(450)
	require.Equal(t, MildRight, c.Last())
	c.Reset()
	require.Equal(t, Straight, c.Correct(300))
}

func TestDeterministic(t *testing.T) {
	a, b := NewController(DefaultConfig()), NewController(DefaultConfig())
	for _, e := range []int{0, 500, 1500, 1300, 200, -600, -1500, 0} {
		require.Equal(t, a.Correct(e), b.Correct(e))
	}
}
