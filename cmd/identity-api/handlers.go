package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	identity "github.com/perical/identity-postgres"
	"github.com/perical/identity-postgres/entity"
	"github.com/perical/identity-postgres/pkg/hasher"
	"github.com/perical/identity-postgres/pkg/utilities"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

// handler exposes the demo HTTP surface over the identity stores. It plays
// the role of the identity-manager layer: it owns normalization, password
// hashing and token issuance; the stores own persistence.
type handler struct {
	stores *identity.Stores[string]
	hasher hasher.Hasher
	logger *zap.SugaredLogger
	secret []byte
}

func newHandler(stores *identity.Stores[string], h hasher.Hasher, logger *zap.SugaredLogger) *handler {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}
	return &handler{stores: stores, hasher: h, logger: logger, secret: []byte(secret)}
}

// normalize canonicalizes usernames and emails for uniqueness and lookup.
func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID string `json:"id"`
}

func (h *handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if req.Username == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password are required"})
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.logger.Warnw("password hash failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}

	normalizedEmail := normalize(req.Email)
	account := &entity.Account[string]{
		ID:                 utilities.NewKSUID(),
		UserName:           req.Username,
		NormalizedUserName: normalize(req.Username),
		SecurityStamp:      utilities.NewKSUID(),
		PasswordHash:       &hash,
		LockoutEnabled:     true,
	}
	if req.Email != "" {
		account.Email = &req.Email
		account.NormalizedEmail = &normalizedEmail
	}

	res, err := h.stores.Accounts.Create(r.Context(), account)
	if err != nil {
		h.logger.Warnw("register failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}
	if !res.Succeeded {
		status := http.StatusConflict
		h.writeJSON(w, status, map[string]any{"errors": res.Errors})
		return
	}
	h.writeJSON(w, http.StatusCreated, registerResponse{ID: account.ID})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	account, err := h.stores.Accounts.FindByName(r.Context(), normalize(req.Username))
	if err != nil {
		h.logger.Warnw("login lookup failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}
	// avoid user enumeration: unknown user and bad password look the same
	if account == nil {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	if account.IsLockedOut(time.Now()) {
		h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "account locked"})
		return
	}

	if account.PasswordHash == nil || !h.hasher.Verify(*account.PasswordHash, req.Password) {
		failed := h.stores.Accounts.IncrementAccessFailedCount(account)
		if failed >= maxFailedLogins {
			end := time.Now().Add(lockoutDuration)
			h.stores.Accounts.SetLockoutEnd(account, &end)
			h.stores.Accounts.ResetAccessFailedCount(account)
		}
		if res, err := h.stores.Accounts.Update(r.Context(), account); err != nil || !res.Succeeded {
			h.logger.Warnw("failed-login bookkeeping failed", "err", err, "result", res)
		}
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	h.stores.Accounts.ResetAccessFailedCount(account)
	h.stores.Accounts.SetLockoutEnd(account, nil)
	if res, err := h.stores.Accounts.Update(r.Context(), account); err != nil || !res.Succeeded {
		h.logger.Warnw("login bookkeeping failed", "err", err, "result", res)
	}

	token, err := h.issueToken(account)
	if err != nil {
		h.logger.Warnw("token issuance failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

// issueToken signs a short-lived HS256 access token for the account.
func (h *handler) issueToken(account *entity.Account[string]) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      account.ID,
		"username": account.UserName,
		"iat":      now.Unix(),
		"exp":      now.Add(15 * time.Minute).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

type recoveryCodesRequest struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}

type recoveryCodesResponse struct {
	Codes []string `json:"codes"`
}

// GenerateRecoveryCodes replaces the account's recovery codes with a fresh
// set and returns them once; only the joined list is persisted.
func (h *handler) GenerateRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	var req recoveryCodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	account, err := h.stores.Accounts.FindByName(r.Context(), normalize(req.Username))
	if err != nil || account == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
		return
	}
	count := req.Count
	if count <= 0 {
		count = 8
	}
	codes := make([]string, count)
	for i := range codes {
		codes[i] = utilities.NewKSUID()
	}
	if err := h.stores.Accounts.ReplaceRecoveryCodes(r.Context(), account, codes); err != nil {
		h.logger.Warnw("recovery code replace failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "operation failed"})
		return
	}
	if res, err := h.stores.Accounts.Update(r.Context(), account); err != nil || !res.Succeeded {
		h.logger.Warnw("recovery code persist failed", "err", err, "result", res)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "operation failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, recoveryCodesResponse{Codes: codes})
}

type redeemRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

func (h *handler) RedeemRecoveryCode(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	account, err := h.stores.Accounts.FindByName(r.Context(), normalize(req.Username))
	if err != nil || account == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
		return
	}
	redeemed, err := h.stores.Accounts.RedeemRecoveryCode(r.Context(), account, req.Code)
	if err != nil {
		h.logger.Warnw("recovery code redeem failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "operation failed"})
		return
	}
	if !redeemed {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid code"})
		return
	}
	if res, err := h.stores.Accounts.Update(r.Context(), account); err != nil || !res.Succeeded {
		h.logger.Warnw("recovery code persist failed", "err", err, "result", res)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "operation failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"redeemed": true})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
