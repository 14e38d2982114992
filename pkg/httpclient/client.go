// Package httpclient wraps net/http with the redirect, cookie, header and
// body-handling policy the SERP providers share: both fetch one page per
// request and want the body read up front, capped so a hostile or broken
// endpoint cannot exhaust memory.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// defaultMaxBodyBytes caps response bodies when no limit is configured.
// Google result pages run a few hundred KB; 10MB leaves generous room.
const defaultMaxBodyBytes = 10 << 20

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	// Transport, e.g. a uTLS-fingerprinted one.
	Transport http.RoundTripper
	// DefaultHeaders are set on every request that does not already carry
	// the header.
	DefaultHeaders map[string]string
	// MaxBodyBytes caps how much of a response body Fetch reads. Zero means
	// the package default; bodies over the cap are an error, not truncated.
	MaxBodyBytes int64
}

// Client wraps a standard http.Client to provide configurable timeouts,
// redirect policies, cookie management and bounded body reads.
type Client struct {
	*http.Client
	defaultHeaders map[string]string
	maxBodyBytes   int64
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// New creates a new HTTP client based on the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	c := &http.Client{
		Timeout: cfg.Timeout,
	}

	if cfg.MaxRedirects >= 0 {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		}
	} else {
		// Don't follow any redirects if max < 0
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if cfg.UseCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		c.Jar = jar
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	return &Client{
		Client:         c,
		defaultHeaders: cfg.DefaultHeaders,
		maxBodyBytes:   cfg.MaxBodyBytes,
	}, nil
}

// Do executes an HTTP request with the configured default headers applied.
// The provided context.Context controls cancellation independent of the
// client timeout. The caller owns the response body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}

	req = req.Clone(ctx)
	for k, v := range c.defaultHeaders {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// Fetch executes a request and reads the whole body, enforcing the
// configured size cap. The body is closed before returning.
func (c *Client) Fetch(ctx context.Context, req *http.Request) (*Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", c.maxBodyBytes)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
