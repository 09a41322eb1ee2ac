// Package cohere implements embedding.Provider against the Cohere embed API.
package cohere

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/embedding"
)

const providerName = "cohere"

// Options contains configuration for the Cohere client.
type Options struct {
	// BaseURL of the Cohere API.
	BaseURL string

	// Model selects the embedding model.
	Model string

	// MaxBatchSize caps the number of texts per API call. Cohere rejects
	// batches above 96.
	MaxBatchSize int

	// MaxConcurrency caps in-flight API calls when a large input is split
	// into batches.
	MaxConcurrency int

	// RequestsPerMinute throttles outgoing calls. Zero disables throttling.
	RequestsPerMinute int

	// MaxRetries is the number of attempts after the first for retryable
	// failures (429 and 5xx).
	MaxRetries int

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns default client options.
var DefaultOptions = Options{
	BaseURL:           "https://api.cohere.com/v1",
	Model:             "embed-english-v3.0",
	MaxBatchSize:      96,
	MaxConcurrency:    4,
	RequestsPerMinute: 90,
	MaxRetries:        3,
}

// Client calls the Cohere embed endpoint.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	batchSize   int
	maxInFlight int
	maxRetries  int
	limiter     *rate.Limiter
	httpClient  *http.Client
	logger      *slog.Logger
}

var _ embedding.Provider = (*Client)(nil)

// New creates a Client. The API key is required.
func New(apiKey string, optFns ...func(o *Options)) (*Client, error) {
	if apiKey == "" {
		return nil, core.NewValidationError("api_key", "must not be empty")
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), opts.MaxConcurrency)
	}

	return &Client{
		apiKey:      apiKey,
		baseURL:     opts.BaseURL,
		model:       opts.Model,
		batchSize:   opts.MaxBatchSize,
		maxInFlight: opts.MaxConcurrency,
		maxRetries:  opts.MaxRetries,
		limiter:     limiter,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
	}, nil
}

type embedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Message    string      `json:"message"`
}

// Generate implements embedding.Provider. Inputs above the batch size are
// split and embedded concurrently; vectors come back in input order.
func (c *Client) Generate(ctx context.Context, texts []string, purpose embedding.Purpose) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxInFlight)

	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		start := start

		g.Go(func() error {
			vectors, err := c.embedBatch(ctx, texts[start:end], purpose)
			if err != nil {
				return err
			}
			copy(out[start:], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string, purpose embedding.Purpose) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{
		Texts:     texts,
		Model:     c.model,
		InputType: string(purpose),
	})
	if err != nil {
		return nil, core.NewEmbeddingProviderError(providerName, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.backoff(attempt, lastErr)); err != nil {
				return nil, core.NewEmbeddingProviderError(providerName, err)
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, core.NewEmbeddingProviderError(providerName, err)
			}
		}

		vectors, retryable, err := c.doEmbed(ctx, body)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, core.NewEmbeddingProviderError(providerName,
					fmt.Errorf("got %d embeddings for %d texts", len(vectors), len(texts)))
			}
			return vectors, nil
		}
		if !retryable {
			return nil, core.NewEmbeddingProviderError(providerName, err)
		}
		lastErr = err
		c.logger.Warn("retrying embed call", "attempt", attempt+1, "error", err)
	}

	return nil, core.NewEmbeddingProviderError(providerName, lastErr)
}

// doEmbed performs one HTTP round trip. The bool reports whether the failure
// is worth retrying.
func (c *Client) doEmbed(ctx context.Context, body []byte) ([][]float32, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &apiError{status: resp.StatusCode, retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
		var parsed embedResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Message != "" {
			apiErr.message = parsed.Message
		}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, apiErr
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, false, fmt.Errorf("failed to decode embed response: %w", err)
	}
	return parsed.Embeddings, false, nil
}

// backoff is exponential with a 30s cap; a server-supplied Retry-After wins
// when longer.
func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	d := time.Duration(math.Min(float64(time.Second)*math.Pow(2, float64(attempt-1)), float64(30*time.Second)))
	var apiErr *apiError
	if errors.As(lastErr, &apiErr) && apiErr.retryAfter > d {
		d = apiErr.retryAfter
	}
	return d
}

type apiError struct {
	status     int
	message    string
	retryAfter time.Duration
}

func (e *apiError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("embed API returned %d: %s", e.status, e.message)
	}
	return fmt.Sprintf("embed API returned %d", e.status)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
