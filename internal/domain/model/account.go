package model

import (
	"fmt"
	"time"
)

// Account is one managed identity bundle: a mailbox plus the GitHub account
// registered with it. Optional fields use the empty string for "unset".
type Account struct {
	ID               int64
	Email            string
	EmailPassword    string
	EmailPhone       string
	GitHubUsername   string
	GitHubPassword   string
	GitHubName       string
	RecoveryCodes    string
	GitHubCookie     string // Session cookie used by the education status checker.
	GitHubApplyID    string // Education application reference.
	EnrollmentStatus EnrollmentStatus
	SaleStatus       SaleStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewAccount returns an account with the default statuses applied to any
// status left blank.
func NewAccount(a Account) Account {
	if a.EnrollmentStatus == "" {
		a.EnrollmentStatus = EnrollmentNone
	}
	if a.SaleStatus == "" {
		a.SaleStatus = SaleAvailable
	}
	return a
}

// Validate checks the mandatory fields and the closed enums. It returns a
// descriptive error naming the first offending field.
func (a Account) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"email", a.Email},
		{"email_password", a.EmailPassword},
		{"github_username", a.GitHubUsername},
		{"github_password", a.GitHubPassword},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}

	if !a.EnrollmentStatus.Valid() {
		return fmt.Errorf("invalid copilot_pro_status %q", a.EnrollmentStatus)
	}
	if !a.SaleStatus.Valid() {
		return fmt.Errorf("invalid sale_status %q", a.SaleStatus)
	}

	return nil
}

// AccountPatch lists every field an update may touch. A nil pointer means the
// field was not supplied and must keep its stored value.
type AccountPatch struct {
	Email            *string
	EmailPassword    *string
	EmailPhone       *string
	GitHubUsername   *string
	GitHubPassword   *string
	GitHubName       *string
	RecoveryCodes    *string
	GitHubCookie     *string
	GitHubApplyID    *string
	EnrollmentStatus *EnrollmentStatus
	SaleStatus       *SaleStatus
}

// IsEmpty reports whether the patch supplies no fields at all.
func (p AccountPatch) IsEmpty() bool {
	return p == AccountPatch{}
}

// Validate checks only the supplied fields: mandatory fields may not be set
// to empty and the enums must hold known values. Applying a valid patch to a
// valid account always yields a valid account.
func (p AccountPatch) Validate() error {
	required := []struct {
		name  string
		value *string
	}{
		{"email", p.Email},
		{"email_password", p.EmailPassword},
		{"github_username", p.GitHubUsername},
		{"github_password", p.GitHubPassword},
	}
	for _, f := range required {
		if f.value != nil && *f.value == "" {
			return fmt.Errorf("%s cannot be empty", f.name)
		}
	}

	if p.EnrollmentStatus != nil && !p.EnrollmentStatus.Valid() {
		return fmt.Errorf("invalid copilot_pro_status %q", *p.EnrollmentStatus)
	}
	if p.SaleStatus != nil && !p.SaleStatus.Valid() {
		return fmt.Errorf("invalid sale_status %q", *p.SaleStatus)
	}

	return nil
}

// Apply merges the supplied fields of p into a copy of a and returns it.
// Identity and timestamps are never touched.
func (p AccountPatch) Apply(a Account) Account {
	setString(&a.Email, p.Email)
	setString(&a.EmailPassword, p.EmailPassword)
	setString(&a.EmailPhone, p.EmailPhone)
	setString(&a.GitHubUsername, p.GitHubUsername)
	setString(&a.GitHubPassword, p.GitHubPassword)
	setString(&a.GitHubName, p.GitHubName)
	setString(&a.RecoveryCodes, p.RecoveryCodes)
	setString(&a.GitHubCookie, p.GitHubCookie)
	setString(&a.GitHubApplyID, p.GitHubApplyID)
	if p.EnrollmentStatus != nil {
		a.EnrollmentStatus = *p.EnrollmentStatus
	}
	if p.SaleStatus != nil {
		a.SaleStatus = *p.SaleStatus
	}
	return a
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
