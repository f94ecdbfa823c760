package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError is returned for any non-2xx response. Callers treat it as
// recoverable: surface it and keep going.
type StatusError struct {
	Code    int
	Message string

	// Errors holds per-field validation messages on 422 responses,
	// keyed by form field name.
	Errors map[string][]string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.Code)
}

// Client talks to the quizroom REST API. Every call returns a per-call
// result value; there is no shared response state between requests.
type Client struct {
	baseURL string
	client  *http.Client
	headers map[string]string

	token string

	// onUnauthorized fires once per 401 so the app can drop its stored
	// token and send the user back to login.
	onUnauthorized func()
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: map[string]string{
			"Accept": "application/json",
		},
	}
}

func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// SetToken sets the bearer token sent on authenticated requests. An empty
// token clears it.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

type response struct {
	status   int
	body     []byte
	filename string
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, extra map[string]string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range extra {
		req.Header.Set(key, value)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	return &response{
		status:   resp.StatusCode,
		body:     responseBody,
		filename: filenameFromDisposition(resp.Header.Get("Content-Disposition")),
	}, nil
}

// doJSON issues a request and decodes a 2xx body into out (when non-nil).
// Non-2xx responses come back as *StatusError carrying the server message.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body io.Reader, contentType string, out any) error {
	var extra map[string]string
	if contentType != "" {
		extra = map[string]string{"Content-Type": contentType}
	}
	resp, err := c.do(ctx, method, endpoint, body, extra)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, nil, "", out)
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	return c.doJSON(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", out)
}

func (c *Client) delete(ctx context.Context, endpoint string, out any) error {
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil, "", out)
}

func statusError(resp *response) error {
	var envelope struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	// Body may not be JSON on gateway errors; the status code alone is
	// still a usable classification.
	_ = json.Unmarshal(resp.body, &envelope)
	return &StatusError{Code: resp.status, Message: envelope.Message, Errors: envelope.Errors}
}

func filenameFromDisposition(disposition string) string {
	if disposition == "" || !strings.Contains(disposition, "attachment") {
		return ""
	}
	idx := strings.Index(disposition, "filename=")
	if idx < 0 {
		return ""
	}
	name := disposition[idx+len("filename="):]
	return strings.Trim(name, `"`)
}
