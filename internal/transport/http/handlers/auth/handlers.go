package authhandler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"evalsphere/internal/domain/auth"
	cryptoutil "evalsphere/internal/platform/crypto"
	"evalsphere/internal/platform/requestctx"
	"evalsphere/internal/transport/http/api"
	"evalsphere/internal/transport/http/middleware"
)

const userStatusActive = "active"

type Handler struct {
	DB         *pgxpool.Pool
	Secret     string
	Crypto     *cryptoutil.Service
	SessionTTL time.Duration
	service    *auth.Service
}

func NewHandler(db *pgxpool.Pool, secret string, crypto *cryptoutil.Service, sessionTTL time.Duration) *Handler {
	return &Handler{
		DB:         db,
		Secret:     secret,
		Crypto:     crypto,
		SessionTTL: sessionTTL,
		service:    auth.NewService(auth.NewStore(db)),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	user, err := h.service.FindActiveUserByEmail(r.Context(), payload.Email, userStatusActive)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := auth.CheckPassword(user.Password, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}

	if user.MFAEnabled {
		if payload.MFACode == "" {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestctx.GetRequestID(r.Context()))
			return
		}
		secret := h.decryptMFASecret(user.MFASecretEnc)
		if secret == "" || !totp.Validate(payload.MFACode, secret) {
			api.Fail(w, http.StatusUnauthorized, "invalid_mfa", "invalid mfa code", requestctx.GetRequestID(r.Context()))
			return
		}
	}

	claims := auth.Claims{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		RoleID:    user.RoleID,
		RoleName:  user.RoleName,
	}
	token, err := auth.GenerateToken(h.Secret, claims, time.Hour)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to generate token", requestctx.GetRequestID(r.Context()))
		return
	}

	refresh, refreshHash, err := newRefreshToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to generate token", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.service.CreateSession(r.Context(), user.ID, refreshHash, time.Now().Add(h.SessionTTL)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to create session", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.service.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("last login update failed", "err", err)
	}

	api.Success(w, map[string]any{
		"token":        token,
		"refreshToken": refresh,
		"role":         user.RoleName,
		"companyId":    user.CompanyID,
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID       string `json:"userId"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID == "" || payload.RefreshToken == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "user id and refresh token required", requestctx.GetRequestID(r.Context()))
		return
	}

	oldHash := hashToken(payload.RefreshToken)
	valid, err := h.service.SessionValid(r.Context(), payload.UserID, oldHash)
	if err != nil || !valid {
		api.Fail(w, http.StatusUnauthorized, "invalid_session", "session expired or revoked", requestctx.GetRequestID(r.Context()))
		return
	}

	user, err := h.service.FindActiveUserByID(r.Context(), payload.UserID, userStatusActive)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_session", "session expired or revoked", requestctx.GetRequestID(r.Context()))
		return
	}

	claims := auth.Claims{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		RoleID:    user.RoleID,
		RoleName:  user.RoleName,
	}
	token, err := auth.GenerateToken(h.Secret, claims, time.Hour)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to generate token", requestctx.GetRequestID(r.Context()))
		return
	}

	refresh, refreshHash, err := newRefreshToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to generate token", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.service.RotateSession(r.Context(), user.ID, oldHash, refreshHash, time.Now().Add(h.SessionTTL)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to rotate session", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token":        token,
		"refreshToken": refresh,
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "refresh token required", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.service.RevokeSession(r.Context(), user.UserID, hashToken(payload.RefreshToken)); err != nil {
		slog.Warn("session revoke failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	var payload resetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Email) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email required", requestctx.GetRequestID(r.Context()))
		return
	}

	// Always report success so the endpoint cannot be used to probe accounts.
	userID, err := h.service.UserIDByEmail(r.Context(), payload.Email)
	if err == nil && userID != "" {
		token, tokenHash, err := newRefreshToken()
		if err == nil {
			if err := h.service.CreatePasswordReset(r.Context(), userID, tokenHash, time.Now().Add(time.Hour)); err != nil {
				slog.Warn("password reset create failed", "err", err)
			} else {
				slog.Info("password reset token issued", "userId", userID, "token", token)
			}
		}
	}
	api.Success(w, map[string]string{"status": "reset_requested"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Token == "" || len(payload.NewPassword) < 8 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "token and a password of at least 8 characters required", requestctx.GetRequestID(r.Context()))
		return
	}

	tokenHash := hashToken(payload.Token)
	userID, err := h.service.PasswordResetUserID(r.Context(), tokenHash)
	if err != nil || userID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_token", "invalid or expired reset token", requestctx.GetRequestID(r.Context()))
		return
	}

	hash, err := auth.HashPassword(payload.NewPassword)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to hash password", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.service.UpdateUserPassword(r.Context(), userID, hash); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update password", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.service.MarkPasswordResetUsed(r.Context(), tokenHash); err != nil {
		slog.Warn("password reset mark-used failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "password_updated"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "EvalSphere",
		AccountName: user.UserID,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_error", "failed to generate mfa secret", requestctx.GetRequestID(r.Context()))
		return
	}

	secretEnc, err := h.Crypto.EncryptString(key.Secret())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_error", "failed to store mfa secret", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.service.UpdateMFASecret(r.Context(), user.UserID, secretEnc); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_error", "failed to store mfa secret", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"secret": key.Secret(), "otpauthUrl": key.URL()}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, false)
}

func (h *Handler) toggleMFA(w http.ResponseWriter, r *http.Request, enable bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}

	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Code == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "mfa code required", requestctx.GetRequestID(r.Context()))
		return
	}

	secretEnc, err := h.service.GetMFASecret(r.Context(), user.UserID)
	if err != nil || len(secretEnc) == 0 {
		api.Fail(w, http.StatusBadRequest, "mfa_not_setup", "mfa has not been set up", requestctx.GetRequestID(r.Context()))
		return
	}
	secret := h.decryptMFASecret(secretEnc)
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "invalid_mfa", "invalid mfa code", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.service.SetMFAEnabled(r.Context(), user.UserID, enable); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_error", "failed to update mfa state", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]bool{"mfaEnabled": enable}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) decryptMFASecret(encrypted []byte) string {
	if len(encrypted) == 0 {
		return ""
	}
	secret, err := h.Crypto.DecryptString(encrypted)
	if err != nil {
		slog.Warn("mfa secret decrypt failed", "err", err)
		return ""
	}
	return secret
}

func newRefreshToken() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	return middleware.RequestHash([]byte(token))
}
