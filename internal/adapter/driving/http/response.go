package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/codevault/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// AccountRequest is the body of POST and PUT /accounts. Absent fields decode
// to nil; on PUT only non-nil fields are applied.
type AccountRequest struct {
	Email            *string `json:"email"`
	EmailPassword    *string `json:"email_password"`
	EmailPhone       *string `json:"email_phone"`
	GitHubUsername   *string `json:"github_username"`
	GitHubPassword   *string `json:"github_password"`
	GitHubName       *string `json:"github_name"`
	RecoveryCodes    *string `json:"github_recovery_codes"`
	GitHubCookie     *string `json:"github_cookie"`
	GitHubApplyID    *string `json:"github_apply_id"`
	EnrollmentStatus *string `json:"copilot_pro_status"`
	SaleStatus       *string `json:"sale_status"`
}

func (r AccountRequest) toAccount() model.Account {
	return model.Account{
		Email:            deref(r.Email),
		EmailPassword:    deref(r.EmailPassword),
		EmailPhone:       deref(r.EmailPhone),
		GitHubUsername:   deref(r.GitHubUsername),
		GitHubPassword:   deref(r.GitHubPassword),
		GitHubName:       deref(r.GitHubName),
		RecoveryCodes:    deref(r.RecoveryCodes),
		GitHubCookie:     deref(r.GitHubCookie),
		GitHubApplyID:    deref(r.GitHubApplyID),
		EnrollmentStatus: model.EnrollmentStatus(deref(r.EnrollmentStatus)),
		SaleStatus:       model.SaleStatus(deref(r.SaleStatus)),
	}
}

func (r AccountRequest) toPatch() model.AccountPatch {
	patch := model.AccountPatch{
		Email:          r.Email,
		EmailPassword:  r.EmailPassword,
		EmailPhone:     r.EmailPhone,
		GitHubUsername: r.GitHubUsername,
		GitHubPassword: r.GitHubPassword,
		GitHubName:     r.GitHubName,
		RecoveryCodes:  r.RecoveryCodes,
		GitHubCookie:   r.GitHubCookie,
		GitHubApplyID:  r.GitHubApplyID,
	}
	if r.EnrollmentStatus != nil {
		s := model.EnrollmentStatus(*r.EnrollmentStatus)
		patch.EnrollmentStatus = &s
	}
	if r.SaleStatus != nil {
		s := model.SaleStatus(*r.SaleStatus)
		patch.SaleStatus = &s
	}
	return patch
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IssueCodeRequest is the body of POST /access-codes.
type IssueCodeRequest struct {
	AccountID     int64 `json:"accountId"`
	ExpiresInDays *int  `json:"expiresInDays"`
	MaxUses       *int  `json:"maxUses"`
	NeverExpires  bool  `json:"neverExpires"`
}

// VerifyRequest is the body of POST /access-codes/verify.
type VerifyRequest struct {
	Code string `json:"code"`
}

// AccountResponse is the JSON representation of an account, secrets included.
type AccountResponse struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	EmailPassword    string `json:"email_password"`
	EmailPhone       string `json:"email_phone"`
	GitHubUsername   string `json:"github_username"`
	GitHubPassword   string `json:"github_password"`
	GitHubName       string `json:"github_name"`
	RecoveryCodes    string `json:"github_recovery_codes"`
	GitHubCookie     string `json:"github_cookie"`
	GitHubApplyID    string `json:"github_apply_id"`
	EnrollmentStatus string `json:"copilot_pro_status"`
	SaleStatus       string `json:"sale_status"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// AccessCodeResponse is the JSON representation of an access code.
// ExpiresAt is null for codes that never expire.
type AccessCodeResponse struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	AccountID int64   `json:"account_id"`
	ExpiresAt *string `json:"expires_at"`
	UsedCount int     `json:"used_count"`
	MaxUses   int     `json:"max_uses"`
	Remaining int     `json:"remaining_uses"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// VerifyResponse is the JSON body of a successful redemption.
type VerifyResponse struct {
	Account    AccountResponse    `json:"account"`
	AccessCode RedemptionResponse `json:"accessCode"`
}

// RedemptionResponse carries the code's counters after the redemption.
type RedemptionResponse struct {
	UsedCount int     `json:"usedCount"`
	MaxUses   int     `json:"maxUses"`
	ExpiresAt *string `json:"expiresAt"`
}

// GitHubProfileResponse is the public GitHub profile of an account's login.
type GitHubProfileResponse struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	PublicRepos int    `json:"public_repos"`
	CreatedAt   string `json:"created_at"`
}

// GitHubSyncResponse is the JSON body of a successful GitHub profile sync.
type GitHubSyncResponse struct {
	Account AccountResponse       `json:"account"`
	Profile GitHubProfileResponse `json:"profile"`
}

// DeleteResponse is the JSON body of a successful delete.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the JSON response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// --- Conversion functions ---

func toAccountResponse(a model.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		Email:            a.Email,
		EmailPassword:    a.EmailPassword,
		EmailPhone:       a.EmailPhone,
		GitHubUsername:   a.GitHubUsername,
		GitHubPassword:   a.GitHubPassword,
		GitHubName:       a.GitHubName,
		RecoveryCodes:    a.RecoveryCodes,
		GitHubCookie:     a.GitHubCookie,
		GitHubApplyID:    a.GitHubApplyID,
		EnrollmentStatus: string(a.EnrollmentStatus),
		SaleStatus:       string(a.SaleStatus),
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.Format(time.RFC3339),
	}
}

func toAccessCodeResponse(c model.AccessCode) AccessCodeResponse {
	return AccessCodeResponse{
		ID:        c.ID,
		Code:      c.Code,
		AccountID: c.AccountID,
		ExpiresAt: formatOptionalTime(c.ExpiresAt),
		UsedCount: c.UsedCount,
		MaxUses:   c.MaxUses,
		Remaining: c.RemainingUses(),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

func toVerifyResponse(r model.Redemption) VerifyResponse {
	return VerifyResponse{
		Account: toAccountResponse(r.Account),
		AccessCode: RedemptionResponse{
			UsedCount: r.UsedCount,
			MaxUses:   r.MaxUses,
			ExpiresAt: formatOptionalTime(r.ExpiresAt),
		},
	}
}

func toGitHubSyncResponse(a model.Account, p model.GitHubProfile) GitHubSyncResponse {
	return GitHubSyncResponse{
		Account: toAccountResponse(a),
		Profile: GitHubProfileResponse{
			Login:       p.Login,
			Name:        p.Name,
			HTMLURL:     p.HTMLURL,
			PublicRepos: p.PublicRepos,
			CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		},
	}
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
