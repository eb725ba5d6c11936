package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessCode_IsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{name: "never expires", expiresAt: nil, want: false},
		{name: "expires in the future", expiresAt: ptr(now.Add(time.Hour)), want: false},
		{name: "expires exactly now", expiresAt: ptr(now), want: false},
		{name: "expired a nanosecond ago", expiresAt: ptr(now.Add(-time.Nanosecond)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := AccessCode{ExpiresAt: tt.expiresAt, MaxUses: 1}
			assert.Equal(t, tt.want, c.IsExpired(now))
		})
	}
}

func TestAccessCode_IsExhausted(t *testing.T) {
	assert.False(t, AccessCode{UsedCount: 0, MaxUses: 1}.IsExhausted())
	assert.False(t, AccessCode{UsedCount: 1, MaxUses: 2}.IsExhausted())
	assert.True(t, AccessCode{UsedCount: 2, MaxUses: 2}.IsExhausted())
	assert.True(t, AccessCode{UsedCount: 3, MaxUses: 2}.IsExhausted())
}

func TestAccessCode_RemainingUses(t *testing.T) {
	assert.Equal(t, 3, AccessCode{UsedCount: 0, MaxUses: 3}.RemainingUses())
	assert.Equal(t, 0, AccessCode{UsedCount: 3, MaxUses: 3}.RemainingUses())
	assert.Equal(t, 0, AccessCode{UsedCount: 5, MaxUses: 3}.RemainingUses())
}
