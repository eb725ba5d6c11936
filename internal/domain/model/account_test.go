package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func fullAccount() Account {
	return Account{
		ID:               7,
		Email:            "a@x.com",
		EmailPassword:    "p1",
		EmailPhone:       "+10000000000",
		GitHubUsername:   "u1",
		GitHubPassword:   "p2",
		GitHubName:       "Alice",
		RecoveryCodes:    "aaaa-bbbb\ncccc-dddd",
		GitHubCookie:     "user_session=abc",
		GitHubApplyID:    "12345678",
		EnrollmentStatus: EnrollmentPending,
		SaleStatus:       SaleAvailable,
	}
}

func TestNewAccount_Defaults(t *testing.T) {
	a := NewAccount(Account{Email: "a@x.com"})

	assert.Equal(t, EnrollmentNone, a.EnrollmentStatus)
	assert.Equal(t, SaleAvailable, a.SaleStatus)
}

func TestNewAccount_KeepsSuppliedStatuses(t *testing.T) {
	a := NewAccount(Account{EnrollmentStatus: EnrollmentActive, SaleStatus: SaleSold})

	assert.Equal(t, EnrollmentActive, a.EnrollmentStatus)
	assert.Equal(t, SaleSold, a.SaleStatus)
}

func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *Account)
		wantErr string
	}{
		{name: "complete account", mutate: func(*Account) {}},
		{name: "missing email", mutate: func(a *Account) { a.Email = "" }, wantErr: "email is required"},
		{name: "missing email password", mutate: func(a *Account) { a.EmailPassword = "" }, wantErr: "email_password is required"},
		{name: "missing github username", mutate: func(a *Account) { a.GitHubUsername = "" }, wantErr: "github_username is required"},
		{name: "missing github password", mutate: func(a *Account) { a.GitHubPassword = "" }, wantErr: "github_password is required"},
		{name: "optional fields empty", mutate: func(a *Account) { a.EmailPhone, a.GitHubName, a.RecoveryCodes = "", "", "" }},
		{name: "unknown enrollment", mutate: func(a *Account) { a.EnrollmentStatus = "expired" }, wantErr: "copilot_pro_status"},
		{name: "unknown sale status", mutate: func(a *Account) { a.SaleStatus = "reserved" }, wantErr: "sale_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := fullAccount()
			tt.mutate(&a)

			err := a.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestAccountPatch_ApplySingleField(t *testing.T) {
	before := fullAccount()

	after := AccountPatch{GitHubName: ptr("Bob")}.Apply(before)

	want := before
	want.GitHubName = "Bob"
	assert.Equal(t, want, after)
	assert.Equal(t, "Alice", before.GitHubName, "Apply must not mutate its input")
}

func TestAccountPatch_ApplyEmptyPatchIsIdentity(t *testing.T) {
	before := fullAccount()

	assert.Equal(t, before, AccountPatch{}.Apply(before))
	assert.True(t, AccountPatch{}.IsEmpty())
}

func TestAccountPatch_ApplyEveryField(t *testing.T) {
	p := AccountPatch{
		Email:            ptr("b@x.com"),
		EmailPassword:    ptr("q1"),
		EmailPhone:       ptr(""),
		GitHubUsername:   ptr("u2"),
		GitHubPassword:   ptr("q2"),
		GitHubName:       ptr("Bob"),
		RecoveryCodes:    ptr("zzzz"),
		GitHubCookie:     ptr("c"),
		GitHubApplyID:    ptr("42"),
		EnrollmentStatus: ptr(EnrollmentActive),
		SaleStatus:       ptr(SaleSold),
	}

	got := p.Apply(fullAccount())

	assert.False(t, p.IsEmpty())
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "b@x.com", got.Email)
	assert.Equal(t, "q1", got.EmailPassword)
	assert.Equal(t, "", got.EmailPhone, "explicit empty string clears an optional field")
	assert.Equal(t, "u2", got.GitHubUsername)
	assert.Equal(t, "q2", got.GitHubPassword)
	assert.Equal(t, "Bob", got.GitHubName)
	assert.Equal(t, "zzzz", got.RecoveryCodes)
	assert.Equal(t, "c", got.GitHubCookie)
	assert.Equal(t, "42", got.GitHubApplyID)
	assert.Equal(t, EnrollmentActive, got.EnrollmentStatus)
	assert.Equal(t, SaleSold, got.SaleStatus)
}

func TestAccountPatch_Validate(t *testing.T) {
	tests := []struct {
		name    string
		patch   AccountPatch
		wantErr string
	}{
		{name: "empty patch", patch: AccountPatch{}},
		{name: "set optional to empty", patch: AccountPatch{GitHubName: ptr("")}},
		{name: "blank email", patch: AccountPatch{Email: ptr("")}, wantErr: "email cannot be empty"},
		{name: "blank github password", patch: AccountPatch{GitHubPassword: ptr("")}, wantErr: "github_password cannot be empty"},
		{name: "valid enrollment", patch: AccountPatch{EnrollmentStatus: ptr(EnrollmentActive)}},
		{name: "unknown enrollment", patch: AccountPatch{EnrollmentStatus: ptr(EnrollmentStatus("gone"))}, wantErr: "copilot_pro_status"},
		{name: "unknown sale status", patch: AccountPatch{SaleStatus: ptr(SaleStatus("x"))}, wantErr: "sale_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEnrollmentStatus_Valid(t *testing.T) {
	assert.True(t, EnrollmentNone.Valid())
	assert.True(t, EnrollmentPending.Valid())
	assert.True(t, EnrollmentActive.Valid())
	assert.False(t, EnrollmentStatus("").Valid())
	assert.False(t, EnrollmentStatus("Active").Valid())
}

func TestSaleStatus_Valid(t *testing.T) {
	assert.True(t, SaleAvailable.Valid())
	assert.True(t, SaleSold.Valid())
	assert.False(t, SaleStatus("").Valid())
}
