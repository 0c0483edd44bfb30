// Package client talks to the studio backend the way the site does,
// including the checks the browser runs before it sends anything.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// ErrInvalidResponse is returned when a 2xx response has no usable payload.
var ErrInvalidResponse = errors.New("invalid response from server")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status     int
	Code       string
	Field      string
	Message    string
	RetryAfter int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error: %d", e.Status)
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
	Error   string `json:"error"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Client calls the backend's JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate asks the backend for a creative line about topic.
func (c *Client) Generate(ctx context.Context, topic string) (string, error) {
	resp, err := c.post(ctx, "/api/generate", map[string]string{"topic": topic})
	if err != nil {
		return "", err
	}
	if !resp.Success || resp.Data == "" {
		return "", ErrInvalidResponse
	}
	return resp.Data, nil
}

// SubmitContact sends a contact message and returns the acknowledgement.
func (c *Client) SubmitContact(ctx context.Context, name, email, message string) (string, error) {
	resp, err := c.post(ctx, "/api/contact", map[string]string{
		"name":    name,
		"email":   email,
		"message": message,
	})
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", ErrInvalidResponse
	}
	return resp.Message, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded apiResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code = decoded.Error
			apiErr.Field = decoded.Field
			apiErr.Message = decoded.Message
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.Message = "Rate limit exceeded. Please wait before making another request."
			apiErr.RetryAfter, _ = strconv.Atoi(resp.Header.Get("Retry-After"))
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	return &decoded, nil
}
