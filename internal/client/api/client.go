// Package api is the storefront's shared HTTP client. It owns the default
// request headers, runs request and response hooks around every call and
// publishes events.Unauthorized whenever the backend answers 401.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/client/events"
)

const authorizationHeader = "Authorization"

// RequestHook runs on every outgoing request after the default headers were
// applied. A returned error aborts the request.
type RequestHook func(req *http.Request) error

// ResponseHook runs on every response before its status is interpreted.
// It must not consume the body.
type ResponseHook func(resp *http.Response)

// Client is the HTTP client facade. Create one per process with New and
// share it.
type Client struct {
	baseURL string
	http    *http.Client
	custom  *http.Client
	timeout time.Duration
	topic   *events.Topic[events.Unauthorized]
	helper  func() (string, bool)
	jar     *resettableJar
	jarURL  *url.URL
	tls     *tls.Config
	log     *zap.Logger

	mu         sync.RWMutex
	headers    http.Header
	onRequest  []RequestHook
	onResponse []ResponseHook
	claimed    bool
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the underlying *http.Client. The client is used as
// is: WithTimeout does not apply to it and it cannot be combined with the TLS
// options.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.custom = hc
		return nil
	}
}

// WithTimeout bounds every request sent by the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.timeout = d
		return nil
	}
}

// WithUnauthorizedTopic sets the topic that receives a signal on every 401.
func WithUnauthorizedTopic(topic *events.Topic[events.Unauthorized]) Option {
	return func(c *Client) error {
		c.topic = topic
		return nil
	}
}

// WithCredentialHelper installs the stored-credential helper consulted by
// the session manager before its own storage keys.
func WithCredentialHelper(fn func() (string, bool)) Option {
	return func(c *Client) error {
		c.helper = fn
		return nil
	}
}

// WithCookieJar keeps server-set cookies between requests, for backends that
// authenticate with a session cookie. The jar is installed on the
// *http.Client in use, including one passed to WithHTTPClient.
func WithCookieJar() Option {
	return func(c *Client) error {
		jar, err := newResettableJar()
		if err != nil {
			return fmt.Errorf("create cookie jar: %w", err)
		}
		c.jar = jar
		return nil
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// New creates a client for baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 10 * time.Second,
		log:     zap.NewNop(),
		headers: make(http.Header),
	}
	c.headers.Set("Accept", "application/json")

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	switch {
	case c.custom != nil && c.tls != nil:
		return nil, ErrTLSWithHTTPClient
	case c.custom != nil:
		c.http = c.custom
	default:
		c.http = &http.Client{Timeout: c.timeout}
		if c.tls != nil {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.TLSClientConfig = c.tls
			c.http.Transport = transport
		}
	}

	if c.jar != nil {
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		c.jarURL = u
		c.http.Jar = c.jar
	}

	c.onResponse = append(c.onResponse, c.signalUnauthorized)
	return c, nil
}

// DefaultHeader returns the value of a default header.
func (c *Client) DefaultHeader(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Get(key)
}

// SetDefaultHeader sets a header sent with every request. The credential
// header can only be changed through Credentials.
func (c *Client) SetDefaultHeader(key, value string) error {
	if http.CanonicalHeaderKey(key) == authorizationHeader {
		return ErrCredentialHeader
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Set(key, value)
	return nil
}

// DelDefaultHeader removes a default header.
func (c *Client) DelDefaultHeader(key string) error {
	if http.CanonicalHeaderKey(key) == authorizationHeader {
		return ErrCredentialHeader
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Del(key)
	return nil
}

// OnRequest appends an outgoing-request hook.
func (c *Client) OnRequest(h RequestHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRequest = append(c.onRequest, h)
}

// OnResponse appends an incoming-response hook.
func (c *Client) OnResponse(h ResponseHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onResponse = append(c.onResponse, h)
}

// StoredCredential asks the credential helper for a token. It reports false
// when no helper is installed or the helper has nothing.
func (c *Client) StoredCredential() (string, bool) {
	if c.helper == nil {
		return "", false
	}
	token, ok := c.helper()
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// Do sends a JSON request to path and decodes a JSON response into out.
// in and out may be nil. Non-2xx answers are returned as *Error; transport
// failures wrap ErrUnavailable.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	reqHooks := append([]RequestHook(nil), c.onRequest...)
	respHooks := append([]ResponseHook(nil), c.onResponse...)
	c.mu.RUnlock()

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range reqHooks {
		if err := h(req); err != nil {
			return fmt.Errorf("request hook: %w", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	for _, h := range respHooks {
		h(resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseErrorResponse(resp)
		c.log.Debug("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

func (c *Client) signalUnauthorized(resp *http.Response) {
	if resp.StatusCode != http.StatusUnauthorized || c.topic == nil {
		return
	}
	c.log.Debug("backend rejected credentials")
	c.topic.Publish(events.Unauthorized{})
}
