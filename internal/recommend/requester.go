package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/wellness-engine/internal/wellness"
	"github.com/saaga0h/wellness-engine/pkg/lenient"
	"github.com/saaga0h/wellness-engine/pkg/llm"
	"github.com/saaga0h/wellness-engine/pkg/retry"
)

// RequesterConfig holds the call policy for the generative text service
type RequesterConfig struct {
	Model       string
	Timeout     time.Duration // per attempt
	MaxRetries  int           // extra attempts after the first
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Requester asks the generative text service for recommendations and
// decodes whatever comes back as leniently as possible.
type Requester struct {
	client  llm.Client
	cfg     RequesterConfig
	decoder *lenient.Decoder[partialResponse]
	logger  *slog.Logger
}

// NewRequester creates a requester
func NewRequester(client llm.Client, cfg RequesterConfig, logger *slog.Logger) *Requester {
	return &Requester{
		client:  client,
		cfg:     cfg,
		decoder: newDecoder(),
		logger:  logger,
	}
}

// newDecoder returns the decode pipeline for model answers: direct parse,
// largest braced candidate, brace repair, bare array, then fragment salvage.
func newDecoder() *lenient.Decoder[partialResponse] {
	return lenient.Standard(partialResponse.usable, arrayStage(), salvageStage())
}

// Request returns 1 to 4 normalised recommendations. Transport failures come
// back as errors classified by llm.IsRetryable; an answer with nothing
// recoverable returns wellness.ErrMalformedResponse.
func (r *Requester) Request(ctx context.Context, in PromptInput) ([]wellness.Recommendation, error) {
	prompt := BuildPrompt(in)
	r.logger.Debug("Recommendation prompt", "prompt_length", len(prompt), "locale", in.Locale)

	policy := retry.Policy{
		MaxAttempts: r.cfg.MaxRetries + 1,
		Backoff:     retry.ExponentialBackoff(r.cfg.BaseBackoff, r.cfg.MaxBackoff),
		Retryable:   llm.IsRetryable,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			r.logger.Warn("LLM call failed, retrying",
				"attempt", attempt,
				"delay_ms", delay.Milliseconds(),
				"error", err)
		},
	}

	raw, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()

		resp, err := r.client.Generate(callCtx, llm.DefaultGenerateRequest(r.cfg.Model, prompt))
		if err != nil {
			return "", err
		}
		return resp.Response, nil
	})
	if err != nil {
		return nil, fmt.Errorf("recommendation request failed: %w", err)
	}

	recs, stage, err := decodeRecommendations(r.decoder, raw, in.Locale)
	if err != nil {
		r.logger.Warn("Unusable recommendation response",
			"response_length", len(raw),
			"error", err)
		return nil, err
	}

	r.logger.Info("Recommendations decoded",
		"stage", stage,
		"count", len(recs))

	return recs, nil
}

// decodeRecommendations runs the decoder and normalises the result
func decodeRecommendations(d *lenient.Decoder[partialResponse], raw, locale string) ([]wellness.Recommendation, string, error) {
	resp, stage, err := d.Decode(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", wellness.ErrMalformedResponse, err)
	}

	recs := normalize(resp.Recommendations, locale)
	if len(recs) == 0 {
		return nil, stage, wellness.ErrMalformedResponse
	}
	return recs, stage, nil
}
