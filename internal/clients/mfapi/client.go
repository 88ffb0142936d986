// Package mfapi fetches historical NAV series from the mfapi.in provider.
package mfapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/navreturns/internal/modules/returns"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public mfapi.in scheme endpoint
const DefaultBaseURL = "https://api.mfapi.in/mf/"

var (
	// ErrNotFound means the provider has no usable history for the code.
	// It wraps returns.ErrNoData so callers can treat both alike.
	ErrNotFound = fmt.Errorf("mfapi: scheme not found: %w", returns.ErrNoData)

	// ErrTransient marks failures worth retrying: network errors, timeouts, 429 and 5xx
	ErrTransient = errors.New("mfapi: transient failure")
)

// IsTransient reports whether err is worth retrying
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Config holds client configuration
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	UserAgent     string
}

// Client for the mfapi.in NAV history API
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	log       zerolog.Logger
}

// NewClient creates a new mfapi.in client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "navreturns/1.0"
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
		log:       log.With().Str("client", "mfapi").Logger(),
	}
}

// schemeResponse is the provider's payload
type schemeResponse struct {
	Meta struct {
		SchemeName string `json:"scheme_name"`
	} `json:"meta"`
	Data []struct {
		Date flexString `json:"date"`
		NAV  flexString `json:"nav"`
	} `json:"data"`
	Status string `json:"status"`
}

// flexString accepts a JSON string or a bare number
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	// Numbers and anything else keep their raw text; normalization drops what does not parse
	*f = flexString(b)
	return nil
}

// FetchHistory fetches the full NAV history of a scheme.
// Returns ErrNotFound when the provider has no data and an ErrTransient-wrapped
// error when a retry may succeed.
func (c *Client) FetchHistory(ctx context.Context, code string) (*returns.History, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait for %s: %w", code, err)
	}

	endpoint := c.baseURL + url.PathEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", code, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", endpoint).Msg("Fetching NAV history")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request for %s cancelled: %w", code, ctx.Err())
		}
		return nil, fmt.Errorf("request for %s failed: %w: %w", code, ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s returned status %d", ErrTransient, code, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body for %s: %w: %w", code, ErrTransient, err)
	}

	var payload schemeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.log.Warn().Err(err).Str("code", code).Msg("Undecodable provider response")
		return nil, fmt.Errorf("%w: undecodable response", ErrNotFound)
	}

	if len(payload.Data) == 0 {
		return nil, ErrNotFound
	}

	history := &returns.History{
		Code:       code,
		SchemeName: strings.TrimSpace(payload.Meta.SchemeName),
		Points:     make([]returns.RawPoint, 0, len(payload.Data)),
	}
	if history.SchemeName == "" {
		history.SchemeName = "Scheme " + code
	}
	for _, d := range payload.Data {
		history.Points = append(history.Points, returns.RawPoint{Date: string(d.Date), NAV: string(d.NAV)})
	}

	c.log.Debug().
		Str("code", code).
		Int("points", len(history.Points)).
		Msg("Fetched NAV history")

	return history, nil
}
