package model

import "time"

// AccessCode is a redeemable grant against exactly one account. ExpiresAt is
// nil for codes that never expire.
type AccessCode struct {
	ID        int64
	Code      string
	AccountID int64
	ExpiresAt *time.Time
	UsedCount int
	MaxUses   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpired reports whether the code is past its expiry at now. A code whose
// expiry equals now is still valid.
func (c AccessCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// IsExhausted reports whether every allowed use has been consumed.
func (c AccessCode) IsExhausted() bool {
	return c.UsedCount >= c.MaxUses
}

// RemainingUses returns how many redemptions are left, never below zero.
func (c AccessCode) RemainingUses() int {
	if n := c.MaxUses - c.UsedCount; n > 0 {
		return n
	}
	return 0
}

// Redemption is the result of a successful redemption: the bound account as
// it exists at redemption time, and the code's counters after the increment.
type Redemption struct {
	Account   Account
	UsedCount int
	MaxUses   int
	ExpiresAt *time.Time
}
