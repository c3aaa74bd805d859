package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tms-portal-api/pkg/config"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
)

// Recorder observes upstream call outcomes for instrumentation.
type Recorder interface {
	ObserveUpstreamRequest(operation string, status int, duration time.Duration)
}

// Client talks to the upstream TMS REST API. Every call is a single
// attempt; failed requests are never retried here, retries are always a
// fresh caller action.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics Recorder
}

// NewClient constructs a gateway client for the configured upstream.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger, metrics Recorder) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: metrics,
	}
}

// do issues a JSON request and decodes the response into out when non-nil.
// Any non-2xx response maps uniformly to an UPSTREAM_ERROR carrying the
// opaque upstream payload; the status code is never branched on beyond
// success/failure.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode upstream request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		if c.metrics != nil {
			c.metrics.ObserveUpstreamRequest(operation, 0, duration)
		}
		c.logger.Warn("upstream request failed",
			zap.String("operation", operation),
			zap.String("path", path),
			zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("%s: upstream unreachable", operation))
	}
	defer resp.Body.Close() //nolint:errcheck

	if c.metrics != nil {
		c.metrics.ObserveUpstreamRequest(operation, resp.StatusCode, duration)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("%s: read upstream response", operation))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(raw))
		if detail == "" {
			detail = resp.Status
		}
		c.logger.Warn("upstream request rejected",
			zap.String("operation", operation),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("%s: %s", operation, detail))
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("%s: decode upstream response", operation))
	}
	return nil
}
