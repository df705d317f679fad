// Package gemini はGoogle Gemini APIを使用した感情分類クライアントを提供します。
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"mindcare_backend/internal/feature/emotion/domain/entity"
	"mindcare_backend/internal/feature/emotion/usecase"
	"mindcare_backend/internal/shared/keypool"
	"mindcare_backend/internal/shared/ratelimiter"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"

	// prompt はモデルに1単語のラベルだけを答えさせます。
	prompt = "Analyze the facial expression in this image and respond with exactly one word from this list: " +
		"Anger, Disgust, Fear, Happiness, Sadness, Surprise, Neutral. Do not add any other text."

	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// Options はClassifierの設定です。BaseURL と HTTPClient はテストで差し替えます。
type Options struct {
	APIKeys       []string
	Model         string
	RatePerMinute int
	BaseURL       string
	HTTPClient    *http.Client
}

// Classifier はAPIキーごとのクライアントをラウンドロビンで使い、
// 呼び出し頻度の制限とサーキットブレーカーを通してGeminiに問い合わせます。
type Classifier struct {
	clients *keypool.Pool[*genai.Client]
	model   string
	limiter ratelimiter.RateLimiterInterface
	breaker *gobreaker.CircuitBreaker
}

var _ usecase.Classifier = (*Classifier)(nil)

// NewClassifier はAPIキーごとにgenaiクライアントを生成します。キーが空の場合はエラーです。
func NewClassifier(ctx context.Context, opts Options) (*Classifier, error) {
	clients := make([]*genai.Client, 0, len(opts.APIKeys))
	for _, key := range opts.APIKeys {
		cfg := &genai.ClientConfig{
			APIKey:     key,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: opts.HTTPClient,
		}
		if opts.BaseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
		}
		client, err := genai.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		clients = append(clients, client)
	}
	pool, err := keypool.New(clients)
	if err != nil {
		return nil, err
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	rate := opts.RatePerMinute
	if rate <= 0 {
		rate = 60
	}

	return &Classifier{
		clients: pool,
		model:   model,
		limiter: ratelimiter.NewRateLimiter(rate, time.Minute),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "gemini",
			Timeout: breakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}, nil
}

// Classify は画像を1つの感情ラベルに分類します。
func (c *Classifier) Classify(ctx context.Context, image []byte, contentType string) (entity.Emotion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	client := c.clients.Next()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		content := genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image, contentType),
		}, genai.RoleUser)

		resp, err := client.Models.GenerateContent(ctx, c.model, []*genai.Content{content}, nil)
		if err != nil {
			return nil, err
		}
		return resp.Text(), nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", usecase.ErrClassifierUnavailable, err)
	}
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}

	label, _ := out.(string)
	emotion, ok := entity.ParseEmotion(label)
	if !ok {
		return "", fmt.Errorf("%w: %q", usecase.ErrUnrecognizedEmotion, label)
	}
	return emotion, nil
}
