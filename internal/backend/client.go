package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pysugar/api-tracker/internal/docs"
	"github.com/pysugar/api-tracker/internal/logging"
	"github.com/pysugar/api-tracker/internal/util"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is where the tracking backend listens by default
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds a single backend call; /run executes user code
	DefaultTimeout = 60 * time.Second

	// maxErrorBody limits how much of a failed reply is kept in StatusError
	maxErrorBody = 4096
)

// ObserveFunc is told about every completed backend call.
// status is 0 when the request never got a reply.
type ObserveFunc func(method, path string, status int, elapsed time.Duration, err error)

// Client talks to the tracking backend's REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	timeout    time.Duration
	verbose    bool
	observe    ObserveFunc
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends the token as a bearer credential on every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithVerbose logs request and response bodies
func WithVerbose(v bool) Option {
	return func(c *Client) { c.verbose = v }
}

// WithObserver registers fn to be called after each request
func WithObserver(fn ObserveFunc) Option {
	return func(c *Client) { c.observe = fn }
}

// NewClient creates a backend client for baseURL (DefaultBaseURL when empty)
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.token != "" {
		base := c.httpClient
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		c.httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: c.token,
			TokenType:   "Bearer",
		}))
		c.httpClient.Timeout = base.Timeout
	}
	if c.httpClient.Timeout == 0 {
		c.httpClient.Timeout = c.timeout
	}
	return c
}

// BaseURL returns the backend root URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateSession asks the backend for a new session id
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := c.do(ctx, "create session", http.MethodGet, "/api-proxy/create-session", nil, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", errors.New("create session: backend returned an empty session_id")
	}
	return out.SessionID, nil
}

// RunCode executes Python code remotely under the given session
func (c *Client) RunCode(ctx context.Context, sessionID, code string) (*RunResult, error) {
	req := RunRequest{
		Code:      code,
		Language:  LanguagePython,
		SessionID: sessionID,
	}
	var out RunResult
	if err := c.do(ctx, "run code", http.MethodPost, "/run", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Calls returns the API calls recorded for a session
func (c *Client) Calls(ctx context.Context, sessionID string) ([]APICall, error) {
	var out []APICall
	path := "/api-proxy/calls/" + url.PathEscape(sessionID)
	if err := c.do(ctx, "fetch calls", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []APICall{}
	}
	return out, nil
}

// ClearCalls deletes the calls recorded for a session
func (c *Client) ClearCalls(ctx context.Context, sessionID string) error {
	path := "/api-proxy/clear/" + url.PathEscape(sessionID)
	return c.do(ctx, "clear calls", http.MethodPost, path, nil, nil)
}

// DocStructure returns the documentation tree keyed by category
func (c *Client) DocStructure(ctx context.Context) (map[string][]docs.Endpoint, error) {
	var out map[string][]docs.Endpoint
	if err := c.do(ctx, "fetch doc structure", http.MethodGet, "/api-docs/structure", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Doc returns a single documentation record
func (c *Client) Doc(ctx context.Context, docID string) (*docs.Doc, error) {
	var out docs.Doc
	if err := c.do(ctx, "fetch doc", http.MethodGet, "/api-docs/"+url.PathEscape(docID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one JSON request. A nil out discards the reply body.
func (c *Client) do(ctx context.Context, op, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal payload: %w", op, err)
		}
		body = bytes.NewReader(jsonData)
		if c.verbose {
			log.Printf("[Backend] %s %s payload: %s", method, path, util.TruncateBytes(jsonData))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID := logging.GetRequestID(ctx); requestID != "" {
		req.Header.Set(logging.HeaderRequestID, requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.report(method, path, 0, time.Since(start), err)
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		c.report(method, path, resp.StatusCode, elapsed, err)
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}
	if c.verbose {
		log.Printf("[Backend] %s %s -> %d (%dms): %s", method, path, resp.StatusCode, elapsed.Milliseconds(), util.TruncateBytes(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       util.TruncateLog(string(respBody), maxErrorBody),
		}
		c.report(method, path, resp.StatusCode, elapsed, statusErr)
		return statusErr
	}

	c.report(method, path, resp.StatusCode, elapsed, nil)

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func (c *Client) report(method, path string, status int, elapsed time.Duration, err error) {
	if c.observe != nil {
		c.observe(method, path, status, elapsed, err)
	}
}
