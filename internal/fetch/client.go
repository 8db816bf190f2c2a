// Package fetch performs single outbound HTTP requests with a fixed timeout
// and classifies the outcome. It never retries; callers own retry policy.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Timeout bounds every request issued through a Client.
const Timeout = 15 * time.Second

const maxBodyBytes = 5 << 20

// Common header sets used by the adapters.
const (
	DesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	MobileUA  = "Mozilla/5.0 (Linux; Android 10) AppleWebKit/537.36 (KHTML, like Gecko) Mobile"
)

// ErrDecode marks a 2xx response whose body could not be parsed.
var ErrDecode = errors.New("fetch: decode body")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s status %d: %s", e.URL, e.StatusCode, e.Body)
}

// TransportError wraps connection, TLS and timeout failures.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsStatus reports whether err is an HTTP status failure.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// IsTransport reports whether err is a connection or timeout failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Request describes one outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   url.Values
}

// Response is a successful (2xx) response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Options configure a Client.
type Options struct {
	// HTTPClient overrides the underlying client; its Timeout is forced to Timeout.
	HTTPClient *http.Client
	// Proxy routes requests through an HTTP(S) proxy when non-empty.
	Proxy string
	// Limiter, when set, paces requests issued by this client.
	Limiter *rate.Limiter
}

// Client is safe for concurrent use.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// New builds a Client. An unparsable proxy URL is an error.
func New(opts Options) (*Client, error) {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	} else {
		cp := *hc
		hc = &cp
	}
	hc.Timeout = Timeout
	if p := strings.TrimSpace(opts.Proxy); p != "" {
		pu, err := url.Parse(p)
		if err != nil || pu.Host == "" {
			return nil, fmt.Errorf("fetch: invalid proxy %q", p)
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.Proxy = http.ProxyURL(pu)
		hc.Transport = tr
	}
	return &Client{http: hc, limiter: opts.Limiter}, nil
}

// Default returns a Client without proxy or limiter.
func Default() *Client {
	c, _ := New(Options{})
	return c
}

// Do performs the request. Non-2xx yields *StatusError, network failures
// yield *TransportError.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse url %q: %w", r.URL, err)
	}
	if len(r.Query) > 0 {
		q := u.Query()
		for k, vs := range r.Query {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: u.String(), Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{URL: u.String(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{URL: u.String(), StatusCode: resp.StatusCode, Body: snippet}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// JSON performs the request and decodes the body into a generic value.
// Numbers decode as json.Number so integer-typed fields stay distinguishable.
func (c *Client) JSON(ctx context.Context, r Request) (any, error) {
	headers := map[string]string{"Accept": "application/json"}
	for k, v := range r.Headers {
		headers[k] = v
	}
	r.Headers = headers
	resp, err := c.Do(ctx, r)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, r.URL, err)
	}
	return v, nil
}
