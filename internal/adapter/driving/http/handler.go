package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/codevault/internal/application"
	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	accounts *application.AccountService
	ledger   *application.LedgerService
	limiter  driven.RateLimiter
	logger   *slog.Logger
}

// NewHandler creates a Handler. limiter may be nil, which disables rate
// limiting on the verification endpoint.
func NewHandler(
	accounts *application.AccountService,
	ledger *application.LedgerService,
	limiter driven.RateLimiter,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		accounts: accounts,
		ledger:   ledger,
		limiter:  limiter,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with request-id, logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/accounts", h.ListAccounts)
	mux.HandleFunc("POST /api/v1/accounts", h.CreateAccount)
	mux.HandleFunc("GET /api/v1/accounts/{id}", h.GetAccount)
	mux.HandleFunc("PUT /api/v1/accounts/{id}", h.UpdateAccount)
	mux.HandleFunc("DELETE /api/v1/accounts/{id}", h.DeleteAccount)
	mux.HandleFunc("POST /api/v1/accounts/{id}/github-sync", h.SyncGitHubProfile)

	mux.HandleFunc("POST /api/v1/access-codes", h.IssueAccessCode)
	mux.HandleFunc("GET /api/v1/access-codes", h.ListAccessCodes)

	var verify http.Handler = http.HandlerFunc(h.VerifyAccessCode)
	if h.limiter != nil {
		verify = rateLimitMiddleware(h.limiter, logger, verify)
	}
	mux.Handle("POST /api/v1/access-codes/verify", verify)

	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// ListAccounts returns every account, newest first.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list accounts", err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, toAccountResponse(a))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateAccount stores a new account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.Create(r.Context(), req.toAccount())
	if err != nil {
		h.writeServiceError(w, r, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

// GetAccount returns a single account by id.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// UpdateAccount merges the supplied fields into an existing account.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.Update(r.Context(), id, req.toPatch())
	if err != nil {
		h.writeServiceError(w, r, "failed to update account", err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// DeleteAccount removes an account and, with it, every code bound to it.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	removed, err := h.accounts.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "failed to delete account", err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

// SyncGitHubProfile refreshes the account's display name from its public
// GitHub profile.
func (h *Handler) SyncGitHubProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	account, profile, err := h.accounts.SyncGitHubProfile(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "failed to sync github profile", err)
		return
	}

	writeJSON(w, http.StatusOK, toGitHubSyncResponse(account, profile))
}

// IssueAccessCode issues a new code for an account with active enrollment.
func (h *Handler) IssueAccessCode(w http.ResponseWriter, r *http.Request) {
	var req IssueCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, err := h.ledger.Issue(r.Context(), application.IssueRequest{
		AccountID:     req.AccountID,
		ExpiresInDays: req.ExpiresInDays,
		MaxUses:       req.MaxUses,
		NeverExpires:  req.NeverExpires,
	})
	if err != nil {
		h.writeServiceError(w, r, "failed to issue access code", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccessCodeResponse(code))
}

// ListAccessCodes returns the codes bound to the account named by the
// accountId query parameter, newest first.
func (h *Handler) ListAccessCodes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("accountId")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "account id is required")
		return
	}
	accountID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || accountID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	codes, err := h.ledger.ListForAccount(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, r, "failed to list access codes", err)
		return
	}

	resp := make([]AccessCodeResponse, 0, len(codes))
	for _, c := range codes {
		resp = append(resp, toAccessCodeResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// VerifyAccessCode redeems a code and returns the bound account.
func (h *Handler) VerifyAccessCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	redemption, err := h.ledger.Redeem(r.Context(), req.Code)
	if err != nil {
		h.writeServiceError(w, r, "failed to verify access code", err)
		return
	}

	writeJSON(w, http.StatusOK, toVerifyResponse(redemption))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps application error kinds to status codes. Anything
// unclassified is logged and reported as a generic 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var appErr *application.Error
	if errors.As(err, &appErr) {
		writeError(w, statusForKind(appErr.Kind), appErr.Message)
		return
	}

	h.logger.Error(msg, "error", err, "request_id", RequestIDFromContext(r.Context()))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func statusForKind(kind error) int {
	switch {
	case errors.Is(kind, application.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, application.ErrPreconditionFailed),
		errors.Is(kind, application.ErrExpired),
		errors.Is(kind, application.ErrQuotaExhausted):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// accountIDFromPath parses the {id} path value, writing a 400 when it is not
// a positive integer.
func accountIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return 0, false
	}
	return id, true
}
