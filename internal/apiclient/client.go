package apiclient

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
	"sync"
	"time"

	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/nav"
	"commerce-storefront/internal/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout bounds every request; expiry surfaces as a NetworkError.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 4 << 20
)

var errUnsuccessful = errors.New("unsuccessful envelope")

// Config configures the transport.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the base round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper
	// TracerProvider and Propagators default to the otel globals.
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
}

// Client is the single chokepoint for outbound requests.
type Client struct {
	baseURL   string
	http      *http.Client
	storage   storage.Storage
	navigator nav.Navigator
	logger    *log.Logger

	hookMu            sync.Mutex
	onUnauthenticated []func()
}

func New(cfg Config, store storage.Storage, navigator nav.Navigator, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.Propagators != nil {
		opts = append(opts, otelhttp.WithPropagators(cfg.Propagators))
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base, opts...),
		},
		storage:   store,
		navigator: navigator,
		logger:    logger,
	}
}

// OnUnauthenticated registers fn to run after a 401 has cleared the stored
// session, so in-memory holders of the user can drop it too.
func (c *Client) OnUnauthenticated(fn func()) {
	c.hookMu.Lock()
	c.onUnauthenticated = append(c.onUnauthenticated, fn)
	c.hookMu.Unlock()
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends one request and decodes the envelope's data into out. Every
// failure is returned as *Error.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(ctx, req, body != nil)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(ctx, &Error{Kind: KindNetwork, Method: method, Path: path, Cause: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.fail(ctx, &Error{Kind: KindNetwork, Method: method, Path: path, Cause: fmt.Errorf("read response: %w", err)})
	}

	if resp.StatusCode >= 400 {
		return c.fail(ctx, &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
			Method:  method,
			Path:    path,
		})
	}

	msg, err := unwrap(raw, out)
	if errors.Is(err, errUnsuccessful) {
		return c.fail(ctx, &Error{Kind: KindClient, Status: resp.StatusCode, Message: msg, Method: method, Path: path})
	}
	if err != nil {
		return c.fail(ctx, &Error{Kind: KindServer, Status: resp.StatusCode, Method: method, Path: path, Cause: err})
	}
	return nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.storage == nil {
		return
	}
	token, err := c.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Printf("apiclient: read token error=%v", err)
		}
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// fail applies the per-kind side effects and returns apiErr.
func (c *Client) fail(ctx context.Context, apiErr *Error) error {
	switch apiErr.Kind {
	case KindAuthentication:
		c.dropSession(context.WithoutCancel(ctx))
	case KindAuthorization:
		c.logger.Printf("apiclient: warning forbidden method=%s path=%s message=%q", apiErr.Method, apiErr.Path, apiErr.Message)
	case KindServer:
		c.logger.Printf("apiclient: server error method=%s path=%s status=%d error=%v", apiErr.Method, apiErr.Path, apiErr.Status, apiErr)
	case KindNetwork:
		c.logger.Printf("apiclient: network error method=%s path=%s error=%v", apiErr.Method, apiErr.Path, apiErr.Cause)
	}
	return apiErr
}

// dropSession is the 401 branch: forget the session and send the user to
// the login view unless they are already there.
func (c *Client) dropSession(ctx context.Context) {
	if c.storage != nil {
		if err := c.storage.Remove(ctx, storage.KeyToken, storage.KeyUser); err != nil {
			c.logger.Printf("apiclient: clear session error=%v", err)
		}
	}
	c.hookMu.Lock()
	hooks := append([]func(){}, c.onUnauthenticated...)
	c.hookMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	if c.navigator != nil && c.navigator.Location() != nav.PathLogin {
		c.navigator.Navigate(nav.PathLogin)
	}
}
