// Package gateway is the single choke point for calls to the coworking
// backend. It attaches the session token, normalizes responses, classifies
// failures and tears the session down when the backend answers 401.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	cerrors "github.com/jrsteele09/go-cowork-client/internal/errors"
	"github.com/jrsteele09/go-cowork-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 20 * time.Second

// Client issues authenticated requests against a fixed base URL.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	store      session.TokenStore
	timeout    time.Duration
	logger     zerolog.Logger
	logout     *logoutSlot
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the transport. Redirects are never followed so that
// a 3xx reaches the caller; a client without CheckRedirect gets that policy.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient == nil {
			return
		}
		clone := *httpClient
		if clone.CheckRedirect == nil {
			clone.CheckRedirect = noRedirects
		}
		c.httpClient = &clone
	}
}

// WithTimeout sets the per-request budget.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for per-request and cleanup logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLogoutHandler fills the logout handler slot at construction time.
func WithLogoutHandler(handler LogoutHandler) Option {
	return func(c *Client) {
		c.logout.setHandler(handler)
	}
}

// WithFallbackLogout sets the action run on 401 when no handler is registered.
func WithFallbackLogout(fallback FallbackLogout) Option {
	return func(c *Client) {
		c.logout.setFallback(fallback)
	}
}

// New creates a gateway for baseURL. Endpoint paths passed to the verb
// methods are appended to it.
func New(baseURL string, store session.TokenStore, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, cerrors.Wrapf(cerrors.ErrMissingBaseURL, "[gateway.New]")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("[gateway.New] %w: %v", cerrors.ErrInvalidBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("[gateway.New] %w: scheme must be http or https, got %q", cerrors.ErrInvalidBaseURL, baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("[gateway.New] %w: no host in %q", cerrors.ErrInvalidBaseURL, baseURL)
	}
	if store == nil {
		return nil, errors.New("[gateway.New] session store is required")
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{CheckRedirect: noRedirects},
		store:      store,
		timeout:    defaultTimeout,
		logger:     log.Logger,
		logout:     &logoutSlot{},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func noRedirects(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, options ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, options)
}

// Post issues a POST. body may be nil, any JSON-encodable value, a
// json.RawMessage, a *Multipart or a *Binary.
func (c *Client) Post(ctx context.Context, endpoint string, body any, options ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, endpoint, nil, body, options)
}

// Put issues a PUT; body is handled as for Post.
func (c *Client) Put(ctx context.Context, endpoint string, body any, options ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPut, endpoint, nil, body, options)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string, options ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil, options)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body any, options []RequestOption) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rc := newRequestConfig(options)
	logger := c.logger.With().Str("method", method).Str("endpoint", endpoint).Logger()

	target, err := c.resolve(endpoint, query)
	if err != nil {
		return nil, c.invalid(method, endpoint, err)
	}
	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, c.invalid(method, endpoint, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, target, reader)
	if err != nil {
		return nil, c.invalid(method, endpoint, err)
	}
	req.Header.Set("Accept", jsonContentType)
	req.Header.Set("Content-Type", contentType)
	for key, value := range rc.headers {
		req.Header.Set(key, value)
	}
	if rc.requiresAuth {
		if tok, err := session.BearerToken(c.store); err == nil {
			tok.SetAuthHeader(req)
		}
	}

	started := time.Now()
	logger.Debug().Bool("auth", req.Header.Get("Authorization") != "").Msg("gateway: sent")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		gwErr := transportError(ctx, reqCtx, method, endpoint, err)
		logger.Warn().Err(err).Str("outcome", gwErr.Kind.String()).Dur("elapsed", time.Since(started)).Msg("gateway: no response")
		return nil, gwErr
	}
	defer resp.Body.Close()

	parsed, err := readBody(resp)
	if err != nil && reqCtx.Err() != nil {
		gwErr := transportError(ctx, reqCtx, method, endpoint, err)
		logger.Warn().Err(err).Str("outcome", gwErr.Kind.String()).Msg("gateway: body read aborted")
		return nil, gwErr
	}
	if err != nil {
		logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("gateway: unreadable body")
	}

	out, gwErr := c.classify(ctx, method, endpoint, resp, parsed)
	if gwErr != nil {
		logger.Info().Str("outcome", gwErr.Kind.String()).Int("status", resp.StatusCode).Dur("elapsed", time.Since(started)).Msg("gateway: failed")
		return nil, gwErr
	}
	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(started)).Msg("gateway: succeeded")
	return out, nil
}

// classify maps the status code to a result; the first matching rule wins.
func (c *Client) classify(ctx context.Context, method, endpoint string, resp *http.Response, body parsedBody) (*Response, *Error) {
	status := resp.StatusCode
	switch {
	case status == http.StatusUnauthorized:
		c.invalidateSession(ctx, method, endpoint)
		return nil, newUnauthorizedError(method, endpoint, body)
	case status == http.StatusUnprocessableEntity:
		return normalize(resp, body, false), nil
	case isRedirect(status):
		return normalize(resp, body, true), nil
	case status == http.StatusConflict:
		return normalize(resp, body, false), nil
	case status < 200 || status >= 300:
		return nil, newStatusError(method, endpoint, status, body)
	}
	return normalize(resp, body, true), nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func (c *Client) resolve(endpoint string, query url.Values) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", errors.New("endpoint is empty")
	}
	if strings.Contains(endpoint, "://") {
		return "", fmt.Errorf("endpoint %q must be a path relative to the base URL", endpoint)
	}
	target, err := url.Parse(c.baseURL.String() + "/" + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if len(query) > 0 {
		values := target.Query()
		for key, vs := range query {
			for _, v := range vs {
				values.Add(key, v)
			}
		}
		target.RawQuery = values.Encode()
	}
	return target.String(), nil
}

func (c *Client) invalid(method, endpoint string, err error) *Error {
	c.logger.Error().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("gateway: invalid request")
	return &Error{
		Kind:     KindInvalidRequest,
		Method:   method,
		Endpoint: endpoint,
		Message:  messageInvalid,
		Err:      fmt.Errorf("%w: %v", ErrInvalidRequest, err),
	}
}

// transportError separates the caller giving up, the request budget running
// out and the network failing.
func transportError(callerCtx, reqCtx context.Context, method, endpoint string, err error) *Error {
	gwErr := &Error{Method: method, Endpoint: endpoint, Err: err}
	var netErr net.Error
	switch {
	case errors.Is(callerCtx.Err(), context.Canceled):
		gwErr.Kind, gwErr.Message = KindCanceled, messageCanceled
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		gwErr.Kind, gwErr.Message = KindTimeout, messageTimeout
	default:
		gwErr.Kind, gwErr.Message = KindNetwork, messageNetwork
	}
	return gwErr
}
