// Package appwrite is a thin REST client for the backend-as-a-service that
// owns accounts, documents, files and the realtime channel.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"go.uber.org/zap"
)

const (
	headerProject  = "X-Appwrite-Project"
	headerSession  = "X-Appwrite-Session"
	headerResponse = "X-Appwrite-Response-Format"
	responseFormat = "1.5.0"
)

type Config struct {
	Endpoint  string
	ProjectID string
	Timeout   time.Duration
}

type Client struct {
	endpoint   string
	project    string
	session    string
	httpClient *http.Client
	logger     *logging.Logger
}

func New(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		project:    cfg.ProjectID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// WithSession returns a copy of the client that authenticates as the
// holder of the given session secret. The receiver is left untouched.
func (c *Client) WithSession(secret string) *Client {
	cp := *c
	cp.session = secret
	return &cp
}

func (c *Client) Session() string {
	return c.session
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) Project() string {
	return c.project
}

func (c *Client) Configured() bool {
	return c.endpoint != "" && c.project != ""
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonRequest(op, method, path string, payload any) (request, error) {
	req := request{op: op, method: method, path: path}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("%s: failed to marshal body: %w", op, err)
	}
	req.body = bytes.NewReader(data)
	req.contentType = "application/json"
	return req, nil
}

// do sends the request and decodes a 2xx JSON answer into out (when non-nil).
// The raw response is returned so callers can read cookies.
func (c *Client) do(ctx context.Context, r request, out any) (*http.Response, error) {
	if !c.Configured() {
		return nil, &errdefs.ServiceError{Op: r.op, Message: "endpoint or project is not set", Err: errdefs.ErrNotConfigured}
	}

	target := c.endpoint + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, &errdefs.ServiceError{Op: r.op, Message: err.Error(), Err: errdefs.ErrNotConfigured}
	}
	req.Header.Set(headerProject, c.project)
	req.Header.Set(headerResponse, responseFormat)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.session != "" {
		req.Header.Set(headerSession, c.session)
	}

	c.logger.Debug(ctx, "backend request", zap.String("op", r.op), zap.String("method", r.method), zap.String("path", r.path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errdefs.ServiceError{Op: r.op, Message: err.Error(), Err: fmt.Errorf("%w: %w", errdefs.ErrUnavailable, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errdefs.ServiceError{Op: r.op, Status: resp.StatusCode, Message: "failed to read response body", Err: fmt.Errorf("%w: %w", errdefs.ErrUnavailable, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, &errdefs.ServiceError{
			Op:      r.op,
			Status:  resp.StatusCode,
			Type:    apiErr.Type,
			Message: apiErr.Message,
			Err:     errdefs.FromStatus(resp.StatusCode),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, &errdefs.ServiceError{Op: r.op, Status: resp.StatusCode, Message: "failed to decode response: " + err.Error(), Err: err}
		}
	}
	return resp, nil
}
