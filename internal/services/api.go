// JSON transport for the stage list backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/stagelist/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// APIService performs rate-limited HTTP requests against the backend, attaching a bearer token when a token source is set.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     oauth2.TokenSource
}

// APIOption configures an [APIService].
type APIOption func(*APIService)

// WithRateLimit caps outgoing requests per second. Zero or negative disables limiting.
func WithRateLimit(rps float64) APIOption {
	return func(a *APIService) {
		if rps > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			a.limiter = nil
		}
	}
}

// WithTokenSource authenticates every request with a bearer token from ts.
func WithTokenSource(ts oauth2.TokenSource) APIOption {
	return func(a *APIService) { a.tokens = ts }
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client, opts ...APIOption) *APIService {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:3000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the backend root.
func (a *APIService) BaseURL() string { return a.baseURL }

// HTTPClient returns the client used for requests.
func (a *APIService) HTTPClient() *http.Client { return a.httpClient }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// APIError is a non-2xx backend response. It unwraps to the matching shared sentinel.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return shared.ErrNotAuthenticated
	case e.StatusCode == http.StatusNotFound:
		return shared.ErrListNotFound
	case e.StatusCode >= 500:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// Do performs a request with an optional JSON body and returns the raw response.
func (a *APIService) Do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if a.tokens != nil {
		tok, err := a.tokens.Token()
		if err != nil {
			if errors.Is(err, shared.ErrNotAuthenticated) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		tok.SetAuthHeader(req)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data)
}

// Put performs a PUT request with the given JSON data and returns the raw response.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPut, path, data)
}

// Delete performs a DELETE request and returns the raw response.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodDelete, path, nil)
}

// JSON sends in (when non-nil) as the request body and decodes a 2xx response into out (when non-nil).
func (a *APIService) JSON(ctx context.Context, method, path string, in, out any) error {
	var data []byte
	if in != nil {
		var err error
		if data, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := a.Do(ctx, method, path, data)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func newAPIError(resp *APIResponse) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(resp.Body, &body) == nil && body.Error != "" {
		e.Message = body.Error
	} else {
		e.Message = strings.TrimSpace(string(resp.Body))
	}
	return e
}
