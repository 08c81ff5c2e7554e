// Package discord implements a REST client for the Discord API endpoints
// whose payloads the entity layer models. Responses are parsed with the
// entities' FromData, so every fetched entity lands in the global caches.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
	"github.com/hata-go/hata/pkg/circuitbreaker"
	"github.com/hata-go/hata/pkg/logger"
	"github.com/hata-go/hata/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

const (
	DefaultBaseURL    = "https://discord.com/api"
	DefaultAPIVersion = 10
	DefaultUserAgent  = "DiscordBot (https://github.com/hata-go/hata, 1.0)"
)

// ClientConfig contains configuration for the Discord REST client.
type ClientConfig struct {
	// BaseURL is the API root without the version segment.
	BaseURL string

	// APIVersion is appended to BaseURL as /v<N>.
	APIVersion int

	// Token authenticates requests. Empty sends no Authorization header.
	Token string

	// TokenType is the Authorization scheme, "Bot" or "Bearer".
	TokenType string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// MaxConcurrency bounds fan-out helpers such as GetUsers.
	MaxConcurrency int

	// RateLimiterConfig for client-side rate limiting.
	RateLimiterConfig RateLimiterConfig

	// MaxAttempts and RetryDelay override the retry preset when set.
	MaxAttempts int
	RetryDelay  time.Duration

	// BreakerThreshold and BreakerTimeout override the circuit breaker preset when set.
	BreakerThreshold int
	BreakerTimeout   time.Duration

	// HTTPClient replaces the default client, mostly for tests.
	HTTPClient *http.Client

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults for a bot token.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		BaseURL:           DefaultBaseURL,
		APIVersion:        DefaultAPIVersion,
		Token:             token,
		TokenType:         "Bot",
		UserAgent:         DefaultUserAgent,
		Timeout:           30 * time.Second,
		MaxConcurrency:    4,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Discord REST client. It is safe for concurrent use.
type Client struct {
	config      ClientConfig
	baseURL     string
	httpClient  *http.Client
	log         *logger.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
}

// NewClient creates a new Discord REST client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.APIVersion <= 0 {
		config.APIVersion = DefaultAPIVersion
	}
	if config.TokenType == "" {
		config.TokenType = "Bot"
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 1
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	log := config.Logger.With(logger.Component("discord_rest"))
	c := &Client{
		config:      config,
		baseURL:     strings.TrimRight(config.BaseURL, "/") + "/v" + strconv.Itoa(config.APIVersion),
		httpClient:  httpClient,
		log:         log,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
	}

	onStateChange := func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}
	if config.BreakerThreshold > 0 || config.BreakerTimeout > 0 {
		c.breaker = circuitbreaker.New("discord-api",
			circuitbreaker.WithFailureThreshold(config.BreakerThreshold),
			circuitbreaker.WithTimeout(config.BreakerTimeout),
			circuitbreaker.WithOnStateChange(onStateChange),
			circuitbreaker.WithIsFailure(isBreakerFailure),
		)
	} else {
		c.breaker = circuitbreaker.DiscordAPIBreaker(onStateChange, isBreakerFailure)
	}

	onRetry := func(attempt int, err error, delay time.Duration) {
		log.Debug("retrying discord request",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	}
	if config.MaxAttempts > 0 || config.RetryDelay > 0 {
		c.retrier = retry.New(
			retry.WithMaxAttempts(config.MaxAttempts),
			retry.WithInitialDelay(config.RetryDelay),
			retry.WithJitter(0.2),
			retry.WithOnRetry(onRetry),
		)
	} else {
		c.retrier = retry.DiscordAPIRetrier(onRetry)
	}

	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// request describes one API call.
type request struct {
	route  Route
	query  url.Values
	body   field.Data
	reason string
}

// doRequest performs a request with rate limiting, circuit breaking, and retries.
// It returns the raw response body, which is empty for 204 responses.
func (c *Client) doRequest(ctx context.Context, req request) ([]byte, error) {
	var payload []byte
	if req.body != nil {
		var err error
		payload, err = field.Encode(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
	}

	requestID := uuid.NewString()
	log := c.log.With(logger.RequestID(requestID), logger.Route(req.route.Key()))

	var respBody []byte
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.breaker.Execute(ctx, func(ctx context.Context) error {
			if err := c.rateLimiter.Wait(ctx, req.route); err != nil {
				return retry.Permanent(err)
			}
			body, err := c.doSingleRequest(ctx, req, payload, log)
			if err != nil {
				return c.classify(req.route, err)
			}
			respBody = body
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %w", shared.ErrDiscordAPIUnavailable, err)
		}
		log.Warn("discord request failed", logger.Err(err))
		return nil, err
	}
	return respBody, nil
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, req request, payload []byte, log *logger.Logger) ([]byte, error) {
	fullURL := c.baseURL + req.route.Path
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.route.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", c.config.TokenType+" "+c.config.Token)
	}
	if req.reason != "" {
		httpReq.Header.Set("X-Audit-Log-Reason", url.PathEscape(req.reason))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.rateLimiter.Update(req.route, resp.Header)
	log.Debug("discord request",
		logger.Int("status", resp.StatusCode),
		logger.Bucket(resp.Header.Get("X-RateLimit-Bucket")),
		logger.Latency(time.Since(start)),
	)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, parseRateLimit(resp.Header, respBody)
	}
	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// classify marks err retryable or permanent for the retrier.
func (c *Client) classify(route Route, err error) error {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		c.rateLimiter.RecordRateLimitHit(route, rlErr)
		c.log.Warn("discord rate limit hit",
			logger.Route(route.Key()),
			logger.Bucket(rlErr.Bucket),
			logger.Bool("global", rlErr.Global),
			logger.Duration("retry_after", rlErr.RetryAfter),
		)
		return retry.Retryable(err)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.ServerError() {
			return retry.Retryable(err)
		}
		return retry.Permanent(err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Permanent(err)
	}

	// Transport errors.
	return retry.Retryable(err)
}

// isBreakerFailure reports whether err says something about API health.
func isBreakerFailure(err error) bool {
	var rlErr *RateLimitError
	switch {
	case errors.As(err, &rlErr):
		return false
	case isClientError(err):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// parseRateLimit builds a RateLimitError from a 429 response.
func parseRateLimit(header http.Header, body []byte) *RateLimitError {
	rlErr := &RateLimitError{
		RetryAfter: time.Second,
		Global:     header.Get("X-RateLimit-Global") == "true" || header.Get("X-RateLimit-Scope") == "global",
		Bucket:     header.Get("X-RateLimit-Bucket"),
	}

	if d, ok := parseSeconds(header.Get("Retry-After")); ok {
		rlErr.RetryAfter = d
	}
	if data, err := field.Decode(body); err == nil {
		if n, ok := data["retry_after"].(json.Number); ok {
			if secs, err := n.Float64(); err == nil && secs >= 0 {
				rlErr.RetryAfter = time.Duration(secs * float64(time.Second))
			}
		}
		if global, ok := data["global"].(bool); ok && global {
			rlErr.Global = true
		}
	}
	return rlErr
}

// getObject performs a request and decodes a JSON object response.
func (c *Client) getObject(ctx context.Context, req request) (field.Data, error) {
	body, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := field.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrDiscordBadResponse, err)
	}
	return data, nil
}

// getArray performs a request and decodes a JSON array response.
func (c *Client) getArray(ctx context.Context, req request) ([]field.Data, error) {
	body, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	items, err := field.DecodeArray(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrDiscordBadResponse, err)
	}
	return items, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// ClientStatus contains the current state of the client.
type ClientStatus struct {
	RateLimiter    RateLimiterStatus
	CircuitBreaker circuitbreaker.State
	Counts         circuitbreaker.Counts
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateLimiter:    c.rateLimiter.Status(),
		CircuitBreaker: c.breaker.State(),
		Counts:         c.breaker.Counts(),
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.breaker.Reset()
}
