package model

// EnrollmentStatus represents an account's standing for the gated Copilot Pro
// benefit. Access codes can only be issued for accounts that are active.
type EnrollmentStatus string

const (
	EnrollmentNone    EnrollmentStatus = "none"
	EnrollmentPending EnrollmentStatus = "pending"
	EnrollmentActive  EnrollmentStatus = "active"
)

// Valid reports whether s is one of the known enrollment statuses.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentNone, EnrollmentPending, EnrollmentActive:
		return true
	}
	return false
}

// SaleStatus marks whether an account has already been handed to a buyer.
// It is informational only and never gates issuance or redemption.
type SaleStatus string

const (
	SaleAvailable SaleStatus = "available"
	SaleSold      SaleStatus = "sold"
)

// Valid reports whether s is one of the known sale statuses.
func (s SaleStatus) Valid() bool {
	return s == SaleAvailable || s == SaleSold
}
