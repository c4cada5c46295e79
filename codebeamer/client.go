// Package codebeamer provides a client for the codeBeamer REST API.
// It covers the wiki page and attachment operations needed to publish
// build trends, plus user and repository lookups used for changeset links.
package codebeamer

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

	"github.com/rs/zerolog"
)

// DefaultTimeout is used for connect, response header and overall request
// timeouts alike.
const DefaultTimeout = 10 * time.Second

// Credentials is the username/password pair sent with every request.
type Credentials struct {
	Username string
	Password string
}

// Client talks to a single wiki page of a codeBeamer instance.
type Client struct {
	logger       zerolog.Logger
	baseURL      string
	wikiID       string
	authHeader   string
	timeout      time.Duration
	strictWrites bool
	httpClient   *http.Client
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithTimeout sets the connect, response header and request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client. Timeouts configured
// with WithTimeout are not applied to a custom client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithStrictWrites makes WriteDocument fail on non-success responses
// instead of logging them.
func WithStrictWrites(strict bool) Option {
	return func(c *Client) {
		c.strictWrites = strict
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the wiki page wikiID on the instance at baseURL.
func New(baseURL, wikiID string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		logger:     zerolog.Nop(),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		wikiID:     wikiID,
		authHeader: basicAuth(creds),
		timeout:    DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		dialer := &net.Dialer{Timeout: c.timeout}
		c.httpClient = &http.Client{
			Timeout: c.timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   c.timeout,
				ResponseHeaderTimeout: c.timeout,
			},
		}
	}

	return c
}

// BaseURL returns the instance URL the client was created for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WikiID returns the identifier of the wiki page the client works on.
func (c *Client) WikiID() string {
	return c.wikiID
}

type markupDto struct {
	URI    string `json:"uri,omitempty"`
	Markup string `json:"markup"`
}

// ReadDocument fetches the current markup of the wiki page.
func (c *Client) ReadDocument(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/rest/wikipage/%s", c.baseURL, c.wikiID)

	body, status, err := c.get(ctx, url)
	if err != nil {
		return "", &RemoteError{Op: "read document", URL: url, Err: err}
	}
	if status != http.StatusOK {
		return "", &RemoteError{Op: "read document", URL: url, StatusCode: status}
	}

	var dto markupDto
	if err := json.Unmarshal(body, &dto); err != nil {
		return "", &RemoteError{Op: "read document", URL: url, StatusCode: status, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return dto.Markup, nil
}

// WriteDocument overwrites the markup of the wiki page. Unless the client
// uses strict writes, a non-success response is logged and ignored.
func (c *Client) WriteDocument(ctx context.Context, markup string) error {
	url := fmt.Sprintf("%s/rest/wikipage", c.baseURL)

	payload, err := json.Marshal(markupDto{
		URI:    "/wikipage/" + c.wikiID,
		Markup: markup,
	})
	if err != nil {
		return fmt.Errorf("failed to encode markup: %w", err)
	}

	status, err := c.send(ctx, http.MethodPut, url, "application/json; charset=utf-8", bytes.NewReader(payload))
	if err != nil {
		return &RemoteError{Op: "write document", URL: url, Err: err}
	}
	if status != http.StatusOK {
		if c.strictWrites {
			return &RemoteError{Op: "write document", URL: url, StatusCode: status}
		}
		c.logger.Warn().
			Int("status", status).
			Str("url", url).
			Msg("Wiki page update was not accepted")
	}

	return nil
}

// doRequest executes req with the authorization header set and returns the
// response body and status code.
func (c *Client) doRequest(req *http.Request) ([]byte, int, error) {
	req.Header.Set("Authorization", c.authHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("Request finished")

	return body, resp.StatusCode, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	return c.doRequest(req)
}

func (c *Client) send(ctx context.Context, method, url, contentType string, body io.Reader) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", contentType)
	_, status, err := c.doRequest(req)
	return status, err
}
