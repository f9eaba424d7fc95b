package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		name   string
		team   int
		volume float64
		want   int
	}{
		{name: "no team no volume", team: 0, volume: 0, want: 0},
		{name: "team without volume", team: 5, volume: 999, want: 0},
		{name: "volume without team", team: 4, volume: 1000, want: 0},
		{name: "level 1 exact", team: 5, volume: 1000, want: 1},
		{name: "level 2 exact", team: 10, volume: 5000, want: 2},
		{name: "team ahead of volume", team: 10, volume: 4999, want: 1},
		{name: "volume ahead of team", team: 9, volume: 5000, want: 1},
		{name: "level 5 exact", team: 25, volume: 25000, want: 5},
		{name: "beyond level 5", team: 100, volume: 1000000, want: 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, levelFor(tc.team, tc.volume))
		})
	}
}

func TestDirectBusinessPercent(t *testing.T) {
	cases := []struct {
		volume float64
		want   float64
	}{
		{volume: 0, want: 0},
		{volume: 9999.99, want: 0},
		{volume: 10000, want: 5},
		{volume: 24999.99, want: 5},
		{volume: 25000, want: 7},
		{volume: 49999.99, want: 7},
		{volume: 50000, want: 10},
		{volume: 1e9, want: 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, directBusinessPercent(tc.volume), "volume %v", tc.volume)
	}
}

func TestLegWeightsSumToFull(t *testing.T) {
	sum := 0.0
	for _, w := range LegWeights {
		sum += w
	}
	assert.Equal(t, 100.0, sum)
}
