package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/auth/usecase"
)

// NonceCookie はOAuthフローのCSRF対策用nonceを運ぶCookie名です。
const NonceCookie = "oauth_nonce"

const nonceCookieMaxAge = 10 * 60

// OAuthProvider は外部IDプロバイダーとの通信を抽象化します。
type OAuthProvider interface {
	Name() entity.Provider
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (usecase.FederatedProfile, error)
}

// StateCodec は要求ロールとnonceを署名付きstateに変換します。
type StateCodec interface {
	Encode(role entity.Role, nonce string) (string, error)
	Decode(state string) (entity.Role, string, error)
}

// PendingStore はnonceをキーにPKCEのverifierを一時保存します。
type PendingStore interface {
	Put(ctx context.Context, nonce, value string) error
	Take(ctx context.Context, nonce string) (string, error)
}

// FederationUsecase は外部プロフィールをローカルユーザーに解決します。
type FederationUsecase interface {
	ResolveFederatedUser(ctx context.Context, p usecase.FederatedProfile, requested entity.Role) (*entity.User, error)
}

// OAuthRedirects はフロー完了後のリダイレクト先です。
type OAuthRedirects struct {
	Success string
	Failure string
}

// OAuthHandler はOAuthの開始とコールバックを処理します。
type OAuthHandler struct {
	auth       AuthUsecase
	federation FederationUsecase
	states     StateCodec
	pending    PendingStore
	redirects  OAuthRedirects
	metrics    AttemptRecorder

	secureCookie bool
}

// NewOAuthHandler はOAuthHandlerの新しいインスタンスを生成します。
func NewOAuthHandler(auth AuthUsecase, federation FederationUsecase, states StateCodec, pending PendingStore,
	redirects OAuthRedirects, metrics AttemptRecorder, secureCookie bool) *OAuthHandler {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &OAuthHandler{
		auth:         auth,
		federation:   federation,
		states:       states,
		pending:      pending,
		redirects:    redirects,
		metrics:      metrics,
		secureCookie: secureCookie,
	}
}

// Begin はプロバイダーの認可画面へリダイレクトするハンドラーを返します。
// role は /doctor 付きのエントリーポイントでのみ doctor になります。
func (h *OAuthHandler) Begin(p OAuthProvider, role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := uuid.NewString()
		verifier := oauth2.GenerateVerifier()

		if err := h.pending.Put(c.Request.Context(), nonce, verifier); err != nil {
			slog.Error("failed to store oauth verifier", "error", err, "provider", p.Name())
			c.Redirect(http.StatusFound, h.redirects.Failure)
			return
		}
		state, err := h.states.Encode(role, nonce)
		if err != nil {
			slog.Error("failed to sign oauth state", "error", err, "provider", p.Name())
			c.Redirect(http.StatusFound, h.redirects.Failure)
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(NonceCookie, nonce, nonceCookieMaxAge, "/auth", "", h.secureCookie, true)
		c.Redirect(http.StatusFound, p.AuthCodeURL(state, verifier))
	}
}

// Callback はプロバイダーからのコールバックを処理するハンドラーを返します。
// stateの署名と期限、Cookieのnonceとの一致が必須です。失敗時は常に失敗用URLへリダイレクトします。
func (h *OAuthHandler) Callback(p OAuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		provider := string(p.Name())

		fail := func(reason string, err error) {
			slog.Warn("oauth callback failed", "provider", provider, "reason", reason, "error", err, "remote_addr", c.ClientIP())
			h.metrics.AuthAttempt(provider, "failure")
			c.Redirect(http.StatusFound, h.redirects.Failure)
		}

		cookieNonce, _ := c.Cookie(NonceCookie)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(NonceCookie, "", -1, "/auth", "", h.secureCookie, true)

		if e := c.Query("error"); e != "" {
			fail("provider error", nil)
			return
		}
		role, nonce, err := h.states.Decode(c.Query("state"))
		if err != nil {
			fail("invalid state", err)
			return
		}
		if cookieNonce == "" || subtle.ConstantTimeCompare([]byte(cookieNonce), []byte(nonce)) != 1 {
			fail("nonce mismatch", nil)
			return
		}
		verifier, err := h.pending.Take(ctx, nonce)
		if err != nil {
			fail("unknown or reused nonce", err)
			return
		}
		code := c.Query("code")
		if code == "" {
			fail("missing code", nil)
			return
		}

		profile, err := p.Exchange(ctx, code, verifier)
		if err != nil {
			fail("code exchange", err)
			return
		}
		if role != entity.RoleDoctor {
			role = entity.RoleUser
		}
		user, err := h.federation.ResolveFederatedUser(ctx, profile, role)
		if err != nil {
			fail("resolve user", err)
			return
		}
		res, err := h.auth.EstablishSession(ctx, user, sessionMeta(c))
		if err != nil {
			fail("establish session", err)
			return
		}

		h.metrics.AuthAttempt(provider, "success")
		slog.Info("oauth signin successful", "provider", provider, "user_id", user.ID, "role", user.Role)
		setTokenCookie(c, res.AccessToken, h.secureCookie)
		c.Redirect(http.StatusFound, h.redirects.Success)
	}
}
