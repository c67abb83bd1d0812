// Package advisor produces savings recommendations from a language model.
// It only reads group snapshots; it never changes group or slot state.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// ErrAdvisoryUnavailable is returned whenever no recommendation could be produced.
var ErrAdvisoryUnavailable = errors.New("advisor unavailable")

// Advisor recommends groups for a member's request.
type Advisor interface {
	Recommend(ctx context.Context, userText string, groups []models.Group) (string, error)
}

// completer sends one prompt to a model and returns its text.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Service implements Advisor over a model provider with a request rate limit.
type Service struct {
	llm     completer
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

func newService(llm completer, perMinute int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	burst := perMinute
	if burst < 1 {
		burst = 1
	}
	return &Service{
		llm:     llm,
		limiter: rate.NewLimiter(limit, burst),
		timeout: 30 * time.Second,
		logger:  logger,
	}
}

// Recommend asks the model for advice about the given groups.
// Every failure, including rate limiting, wraps ErrAdvisoryUnavailable.
func (s *Service) Recommend(ctx context.Context, userText string, groups []models.Group) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "", fmt.Errorf("%w: empty message", ErrAdvisoryUnavailable)
	}
	if !s.limiter.Allow() {
		s.logger.Warn("Advisor rate limited", "provider", s.llm.Name())
		return "", fmt.Errorf("%w: too many requests", ErrAdvisoryUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.llm.Complete(ctx, BuildPrompt(userText, groups))
	if err != nil {
		s.logger.Error("Advisor request failed", "provider", s.llm.Name(), "error", err)
		return "", fmt.Errorf("%w: %v", ErrAdvisoryUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrAdvisoryUnavailable)
	}

	s.logger.Info("Advisor responded",
		"provider", s.llm.Name(),
		"groups", len(groups),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// Config selects and configures a provider.
type Config struct {
	Provider      string // "gemini", "openai" or "" for none
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	PerMinute     int
}

// New builds the configured advisor. A config without a provider returns
// Disabled, which always fails with ErrAdvisoryUnavailable.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Advisor, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return Disabled{}, nil
	case "gemini":
		llm, err := newGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return newService(llm, cfg.PerMinute, logger), nil
	case "openai":
		llm, err := newOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		return newService(llm, cfg.PerMinute, logger), nil
	default:
		return nil, fmt.Errorf("unknown advisor provider %q", cfg.Provider)
	}
}

// Disabled is the advisor used when no provider is configured.
type Disabled struct{}

func (Disabled) Recommend(context.Context, string, []models.Group) (string, error) {
	return "", fmt.Errorf("%w: no provider configured", ErrAdvisoryUnavailable)
}
