// Package oauth は外部IDプロバイダー（Google・X）とのOAuth 2.0連携を実装します。
// いずれもPKCE（S256）を使用します。
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/auth/usecase"
)

const (
	googleUserInfoURL  = "https://openidconnect.googleapis.com/v1/userinfo"
	twitterUserInfoURL = "https://api.twitter.com/2/users/me"

	maxProfileBytes = 1 << 20
)

// twitterEndpoint はX（旧Twitter）のOAuth 2.0エンドポイントです。
var twitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// Config はプロバイダーの設定です。Endpoint と ProfileURL はテストで差し替えます。
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	ProfileURL   string
}

// Provider はOAuth 2.0プロバイダーです。
type Provider struct {
	name       entity.Provider
	oauth      *oauth2.Config
	profileURL string
	httpClient *http.Client
	authOpts   []oauth2.AuthCodeOption
	parse      func(body []byte) (usecase.FederatedProfile, error)
}

// NewGoogle はGoogleプロバイダーを生成します。
func NewGoogle(cfg Config, httpClient *http.Client) *Provider {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = googleUserInfoURL
	}
	return newProvider(entity.ProviderGoogle, cfg, []string{"openid", "email", "profile"}, httpClient, parseGoogleProfile,
		oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// NewTwitter はX（旧Twitter）プロバイダーを生成します。
func NewTwitter(cfg Config, httpClient *http.Client) *Provider {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = twitterEndpoint
	}
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = twitterUserInfoURL + "?user.fields=id,name,username"
	}
	return newProvider(entity.ProviderTwitter, cfg, []string{"tweet.read", "users.read", "offline.access"}, httpClient, parseTwitterProfile)
}

func newProvider(name entity.Provider, cfg Config, scopes []string, httpClient *http.Client,
	parse func([]byte) (usecase.FederatedProfile, error), opts ...oauth2.AuthCodeOption) *Provider {
	return &Provider{
		name: name,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     cfg.Endpoint,
			Scopes:       scopes,
		},
		profileURL: cfg.ProfileURL,
		httpClient: httpClient,
		authOpts:   opts,
		parse:      parse,
	}
}

// Name はプロバイダー名を返します。
func (p *Provider) Name() entity.Provider {
	return p.name
}

// AuthCodeURL は認可画面のURLを返します。verifier からS256のcode_challengeを付与します。
func (p *Provider) AuthCodeURL(state, verifier string) string {
	opts := append([]oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}, p.authOpts...)
	return p.oauth.AuthCodeURL(state, opts...)
}

// Exchange は認可コードをトークンに交換し、プロフィールを取得します。
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (usecase.FederatedProfile, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return usecase.FederatedProfile{}, fmt.Errorf("%s: token exchange failed: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return usecase.FederatedProfile{}, err
	}
	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return usecase.FederatedProfile{}, fmt.Errorf("%s: profile request failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return usecase.FederatedProfile{}, fmt.Errorf("%s: failed to read profile: %w", p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return usecase.FederatedProfile{}, fmt.Errorf("%s: profile request returned %d", p.name, resp.StatusCode)
	}

	profile, err := p.parse(body)
	if err != nil {
		return usecase.FederatedProfile{}, fmt.Errorf("%s: %w", p.name, err)
	}
	if profile.ExternalID == "" {
		return usecase.FederatedProfile{}, usecase.ErrInvalidProfile
	}
	return profile, nil
}

// googleUserInfo はOpenID ConnectのUserInfoレスポンスです。
type googleUserInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func parseGoogleProfile(body []byte) (usecase.FederatedProfile, error) {
	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return usecase.FederatedProfile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	p := usecase.FederatedProfile{
		Provider:    entity.ProviderGoogle,
		ExternalID:  info.Sub,
		DisplayName: info.Name,
	}
	// 未検証のメールアドレスは採用しない
	if info.EmailVerified {
		p.Email = info.Email
	}
	return p, nil
}

// twitterUser は /2/users/me のレスポンスです。
type twitterUser struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

func parseTwitterProfile(body []byte) (usecase.FederatedProfile, error) {
	var u twitterUser
	if err := json.Unmarshal(body, &u); err != nil {
		return usecase.FederatedProfile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return usecase.FederatedProfile{
		Provider:    entity.ProviderTwitter,
		ExternalID:  u.Data.ID,
		DisplayName: u.Data.Name,
		UserName:    u.Data.Username,
	}, nil
}
