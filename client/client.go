package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/joelanford/ngsi-client-go/codec"
)

// Client talks to a context broker on behalf of one entity type.
//
// A Client built with New is ready to use. A Client built as a struct literal
// is equally valid: it is normalized the first time it is used.
type Client struct {
	Config     Config
	Log        logr.Logger
	HTTPClient *http.Client

	once sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. TLS settings of a supplied client
// are left untouched.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.HTTPClient = h
		}
	}
}

// WithLogger sets the sink for request and dropped-data diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(c *Client) {
		c.Log = l
	}
}

// New creates a Client for the broker described by cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrMissingURL
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid broker URL: %w", err)
	}

	c := &Client{Config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	c.init()
	return c, nil
}

func (c *Client) init() {
	c.once.Do(func() {
		c.Config = c.Config.Normalize()
		if c.Log.GetSink() == nil {
			c.Log = logr.Discard()
		}
		if c.HTTPClient == nil {
			c.HTTPClient = newHTTPClient(c.Config.Strict())
		}
	})
}

func newHTTPClient(strict bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !strict {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via strictssl=false
	}
	return &http.Client{Transport: transport}
}

func (c *Client) codec() codec.Codec {
	return codec.Codec{Log: c.Log.WithName("codec")}
}

// Request describes one call to the broker.
type Request struct {
	// Method defaults to GET.
	Method string
	// Path is resolved against the configured URL.
	Path string
	// Data, when non-nil, is sent as the JSON request body.
	Data any
}

// Request performs a single authenticated exchange with the broker and returns
// the JSON response body, or nil when the body is empty. Transport failures are
// returned unchanged; any status other than 200 yields a *StatusError.
func (c *Client) Request(ctx context.Context, req *Request) (json.RawMessage, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c.init()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target, err := c.resolve(req.Path)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Data != nil {
		data, err := jsonMarshal(req.Data)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("X-Auth-Token", c.Config.AuthToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.Config.UserAgent)

	c.Log.V(1).Info("request", "method", method, "path", req.Path)
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrInvalidResponse)
	}
	return json.RawMessage(data), nil
}

func (c *Client) resolve(path string) (string, error) {
	if strings.TrimSpace(c.Config.URL) == "" {
		return "", ErrMissingURL
	}
	base, err := url.Parse(c.Config.URL)
	if err != nil {
		return "", fmt.Errorf("invalid broker URL: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// decodeBody unmarshals a response body into out. An empty body leaves out at
// its zero value.
func decodeBody(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func jsonMarshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
