// Package client is a typed Go client for the trackmap-engine HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
)

// DefaultTimeout is the maximum time to wait for an engine response.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the engine.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("trackmap-engine returned %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("trackmap-engine returned status %d", e.StatusCode)
}

// Is lets callers test API errors against the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case apperrors.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case apperrors.ErrConflict:
		return e.StatusCode == http.StatusConflict
	case apperrors.ErrValidation:
		return e.StatusCode == http.StatusBadRequest && e.Code == "validation_error"
	}
	return false
}

// Client talks to one product of a trackmap-engine server.
type Client struct {
	baseURL    *url.URL
	productID  uuid.UUID
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.Named("client")
		}
	}
}

// New creates a client for productID on the server at baseURL.
func New(baseURL string, productID uuid.UUID, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:    u,
		productID:  productID,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ProductID returns the product this client is scoped to.
func (c *Client) ProductID() uuid.UUID {
	return c.productID
}

// ListSuggestedValues returns every suggested value of the product.
func (c *Client) ListSuggestedValues(ctx context.Context) ([]*models.SuggestedValue, error) {
	var out struct {
		Values []*models.SuggestedValue `json:"values"`
	}
	if err := c.do(ctx, http.MethodGet, nil, &out, "suggested-values"); err != nil {
		return nil, err
	}
	return out.Values, nil
}

// GetSuggestedValue fetches one suggested value.
func (c *Client) GetSuggestedValue(ctx context.Context, id uuid.UUID) (*models.SuggestedValue, error) {
	var out models.SuggestedValue
	if err := c.do(ctx, http.MethodGet, nil, &out, "suggested-values", id.String()); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSuggestedValue adds a value. A collision is returned as
// *apperrors.SuggestedValueConflictError.
func (c *Client) CreateSuggestedValue(ctx context.Context, patch models.SuggestedValuePatch) (*models.SuggestedValue, error) {
	var out models.SuggestedValue
	if err := c.do(ctx, http.MethodPost, patch, &out, "suggested-values"); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSuggestedValue changes a value. A collision is returned as
// *apperrors.SuggestedValueConflictError.
func (c *Client) UpdateSuggestedValue(ctx context.Context, id uuid.UUID, patch models.SuggestedValuePatch) (*models.SuggestedValue, error) {
	var out models.SuggestedValue
	if err := c.do(ctx, http.MethodPut, patch, &out, "suggested-values", id.String()); err != nil {
		return nil, err
	}
	return &out, nil
}

// MergeSuggestedValues absorbs sourceID into targetID and returns the target.
func (c *Client) MergeSuggestedValues(ctx context.Context, sourceID, targetID uuid.UUID) (*models.SuggestedValue, error) {
	body := struct {
		TargetID uuid.UUID `json:"targetId"`
	}{TargetID: targetID}

	var out models.SuggestedValue
	if err := c.do(ctx, http.MethodPost, body, &out, "suggested-values", sourceID.String(), "merge"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSuggestedValueImpact lists the events that would lose their reference if
// the value were deleted.
func (c *Client) GetSuggestedValueImpact(ctx context.Context, id uuid.UUID) (*models.ImpactData, error) {
	var out models.ImpactData
	if err := c.do(ctx, http.MethodGet, nil, &out, "suggested-values", id.String(), "impact"); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSuggestedValue removes a value.
func (c *Client) DeleteSuggestedValue(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, nil, nil, "suggested-values", id.String())
}

// ListEvents returns every event of the product.
func (c *Client) ListEvents(ctx context.Context) ([]*models.Event, error) {
	var out struct {
		Events []*models.Event `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, nil, &out, "events"); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// do sends one request under /api/products/{pid}/ and decodes the data field
// of the response envelope into out.
func (c *Client) do(ctx context.Context, method string, in, out any, segments ...string) error {
	endpoint := c.buildURL(append([]string{"api", "products", c.productID.String()}, segments...)...)

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Calling trackmap-engine",
		zap.String("method", method),
		zap.String("url", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call trackmap-engine: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return errors.New("response has no data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// decodeError turns an error body into *APIError, or into the typed conflict
// error when the server reports a suggested value collision.
func decodeError(status int, raw []byte) error {
	var body struct {
		Error        string               `json:"error"`
		Message      string               `json:"message"`
		ConflictData *models.ConflictData `json:"conflictData"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return &APIError{StatusCode: status, Message: string(bytes.TrimSpace(raw))}
	}

	if status == http.StatusConflict && body.Error == apperrors.CodeSuggestedValueExists && body.ConflictData != nil {
		return &apperrors.SuggestedValueConflictError{Data: *body.ConflictData}
	}

	return &APIError{StatusCode: status, Code: body.Error, Message: body.Message}
}

// buildURL joins path segments onto the base URL.
func (c *Client) buildURL(pathSegments ...string) string {
	u := *c.baseURL
	u.Path = path.Join(append([]string{u.Path}, pathSegments...)...)
	return u.String()
}
