package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/pkg/config"
)

const defaultModel = "gemini-2.0-flash"

// Client implements providers.TextGenerator on the Gemini API. Calls pass
// through a circuit breaker so a failing service is skipped quickly.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

var _ providers.TextGenerator = (*Client)(nil)

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg *config.GeminiConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:  client,
		model:   model,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker(breakerSettings(model)),
	}, nil
}

func breakerSettings(model string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "gemini:" + model,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Refusals and empty candidates say nothing about service health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, providers.ErrGenerationRejected) ||
				errors.Is(err, providers.ErrEmptyGeneration) ||
				errors.Is(err, context.Canceled)
		},
	}
}

// Generate returns the first candidate's text for prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts providers.GenerationOptions) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, prompt, opts)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", providers.ErrGeneratorUnavailable, err)
	}
	recordGeminiMetric(ctx, c.model, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) generate(ctx context.Context, prompt string, opts providers.GenerationOptions) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		TopP:            genai.Ptr(opts.TopP),
		TopK:            genai.Ptr(opts.TopK),
		MaxOutputTokens: opts.MaxOutputTokens,
	})
	if err != nil {
		return "", classifyError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", providers.ErrGenerationRejected, resp.PromptFeedback.BlockReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", providers.ErrEmptyGeneration
	}
	return text, nil
}

// classifyError maps SDK errors onto retryable and non-retryable sentinels.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	if code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout {
		return fmt.Errorf("%w: %v", providers.ErrGenerationRejected, err)
	}
	return fmt.Errorf("%w: %v", providers.ErrGenerationFailed, err)
}

type geminiMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var (
	geminiMetricsOnce sync.Once
	geminiMetricsOK   bool
	metrics           geminiMetrics
)

func ensureGeminiMetrics() {
	geminiMetricsOnce.Do(func() {
		meter := otel.Meter("github.com/zatekoja/mypadicare/gemini")

		requestCount, err := meter.Int64Counter(
			"ai.gemini.request.count",
			metric.WithDescription("Number of Gemini requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.gemini.request.duration",
			metric.WithDescription("Gemini request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.gemini.request.errors",
			metric.WithDescription("Number of Gemini request errors"),
		)
		if err != nil {
			return
		}

		metrics = geminiMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
		}
		geminiMetricsOK = true
	})
}

func recordGeminiMetric(ctx context.Context, model string, duration time.Duration, err error) {
	ensureGeminiMetrics()
	if !geminiMetricsOK {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", model),
	)
	metrics.requestCount.Add(ctx, 1, attrs)
	metrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		metrics.requestErrors.Add(ctx, 1, attrs)
	}
}
