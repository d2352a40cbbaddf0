// Package httpc is a small HTTP client for the liveness server API.
package httpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-liveness/pkg/session"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// NewHTTPClient creates an http.Client with the specified timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: DefaultKeepAlive,
			}).DialContext,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       DefaultIdleConnTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("liveness api: %d %s", e.Status, e.Message)
}

// Client talks to a liveness server.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for baseURL (e.g. "http://localhost:8080").
// A nil httpClient uses NewHTTPClient(DefaultTimeout).
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeout)
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// CreateSession starts a capture session.
func (c *Client) CreateSession(ctx context.Context, facing string) (session.Info, error) {
	body, err := json.Marshal(map[string]string{"facing": facing})
	if err != nil {
		return session.Info{}, err
	}
	var info session.Info
	err = c.do(ctx, http.MethodPost, "/api/liveness", body, &info)
	return info, err
}

// GetSession fetches a session view.
func (c *Client) GetSession(ctx context.Context, id string) (session.Info, error) {
	var info session.Info
	err := c.do(ctx, http.MethodGet, "/api/liveness/"+id, nil, &info)
	return info, err
}

// CancelSession cancels a session.
func (c *Client) CancelSession(ctx context.Context, id string) (session.Info, error) {
	var info session.Info
	err := c.do(ctx, http.MethodDelete, "/api/liveness/"+id, nil, &info)
	return info, err
}

// Photo downloads the watermarked proof photo.
func (c *Client) Photo(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := c.do(ctx, http.MethodGet, "/api/liveness/"+id+"/photo", nil, &data)
	return data, err
}

// do sends a request and decodes the response into out. A *[]byte out
// receives the raw body.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
