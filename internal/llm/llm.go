// Package llm wraps the hosted language models used for field extraction
// behind a single prompt-in, text-out interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"legalreview/core"
)

var ErrNoProviders = errors.New("no LLM provider configured")

// Model completes a single prompt.
type Model interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options are shared by every backend.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Retrying retries a model with exponential backoff.
type Retrying struct {
	Model    Model
	Attempts int
	Backoff  time.Duration
	Logger   *zap.SugaredLogger
}

func (r *Retrying) Name() string {
	return r.Model.Name()
}

func (r *Retrying) Generate(ctx context.Context, prompt string) (string, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := r.Backoff

	var lastErr error
	for i := 0; i < attempts; i++ {
		out, err := r.Model.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}

		r.Logger.Warnw("model call failed, will retry",
			"model", r.Model.Name(),
			"attempt", i+1,
			"max_attempts", attempts,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("%s failed after %d attempts: %w", r.Model.Name(), attempts, lastErr)
}

// Fallback asks each model in turn and returns the first answer.
type Fallback struct {
	Models []Model
	Logger *zap.SugaredLogger
}

func (f *Fallback) Name() string {
	names := make([]string, 0, len(f.Models))
	for _, m := range f.Models {
		names = append(names, m.Name())
	}
	return strings.Join(names, ",")
}

func (f *Fallback) Generate(ctx context.Context, prompt string) (string, error) {
	if len(f.Models) == 0 {
		return "", ErrNoProviders
	}

	var errs []error
	for _, m := range f.Models {
		out, err := m.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		f.Logger.Warnw("model failed, falling back", "model", m.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
	}

	return "", errors.Join(errs...)
}

// FromConfig builds the fallback chain named by LLM_PROVIDERS. Providers
// without credentials are skipped.
func FromConfig(ctx context.Context, cfg *core.Config, logger *zap.SugaredLogger) (*Fallback, error) {
	opts := Options{Temperature: cfg.LLMTemperature, MaxTokens: cfg.LLMMaxTokens}
	chain := &Fallback{Logger: logger}

	for _, provider := range cfg.LLMProviders {
		var (
			m   Model
			err error
		)

		switch strings.ToLower(provider) {
		case "gemini":
			if cfg.GeminiAPIKey == "" {
				logger.Warnw("skipping provider without credentials", "provider", provider)
				continue
			}
			m, err = NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, opts)
		case "vertex":
			if cfg.GCPProjectID == "" {
				logger.Warnw("skipping provider without credentials", "provider", provider)
				continue
			}
			m, err = NewVertex(ctx, cfg.GCPProjectID, cfg.VertexRegion, cfg.GeminiModel, opts)
		case "groq":
			if cfg.GroqAPIKey == "" {
				logger.Warnw("skipping provider without credentials", "provider", provider)
				continue
			}
			m = NewGroq(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel, opts)
		default:
			return nil, fmt.Errorf("unknown LLM provider %q", provider)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", provider, err)
		}

		chain.Models = append(chain.Models, &Retrying{
			Model:    m,
			Attempts: cfg.MaxRetries,
			Backoff:  time.Second,
			Logger:   logger,
		})
	}

	if len(chain.Models) == 0 {
		return nil, ErrNoProviders
	}

	return chain, nil
}
