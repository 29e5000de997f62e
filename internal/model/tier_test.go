package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in    string
		want  Tier
		valid bool
	}{
		{"free", TierFree, true},
		{"", TierFree, true},
		{"starter", TierStarter, true},
		{" Pro ", TierPro, true},
		{"enterprise", TierFree, false},
	}

	for _, tt := range tests {
		got, ok := ParseTier(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, tt.valid, ok, "input %q", tt.in)
	}
}

func TestTierPaid(t *testing.T) {
	assert.False(t, TierFree.Paid())
	assert.True(t, TierStarter.Paid())
	assert.True(t, TierPro.Paid())
}

func TestPeriod(t *testing.T) {
	ts := time.Date(2026, time.August, 29, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-08", Period(ts))

	// period marker is UTC-based: 2026-09-01 08:00 +10:00 is still August in UTC
	east := time.FixedZone("UTC+10", 10*60*60)
	assert.Equal(t, "2026-08", Period(time.Date(2026, time.September, 1, 8, 0, 0, 0, east)))
}
