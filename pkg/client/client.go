// Package client talks to a FileVault server over HTTP. It keeps the
// session cookie in a jar, retries rate-limited calls with exponential
// backoff, and feeds uploads through a single-worker UploadQueue.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v5"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
)

var errTooManyRequests = errors.New("429 too many requests")

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client

	retryBase time.Duration
	jitter    time.Duration
	retries   uint
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added
// when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the 429 policy: wait base*2^n plus up to jitter, at most
// retries times.
func WithRetry(base, jitter time.Duration, retries uint) Option {
	return func(c *Client) {
		c.retryBase = base
		c.jitter = jitter
		c.retries = retries
	}
}

// New returns a client of the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q needs a scheme and host", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: 5 * time.Minute},
		retryBase: DefaultRetryBase,
		jitter:    defaultJitterSpan,
		retries:   DefaultRetryMax,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}

		c.http.Jar = jar
	}

	return c, nil
}

func (c *Client) url(path string) string {
	return c.baseURL.String() + path
}

// do sends the request built by build, retrying on 429. build runs once per
// attempt so bodies can be replayed.
func (c *Client) do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	op := func() (*http.Response, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			return nil, errTooManyRequests
		}

		return resp, nil
	}

	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&jitterBackOff{base: c.retryBase, jitter: c.jitter}),
		backoff.WithMaxTries(c.retries+1),
	)
	if errors.Is(err, errTooManyRequests) {
		return nil, ErrRateLimited
	}

	return resp, err
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var raw []byte

	if body != nil {
		var err error
		if raw, err = sonic.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	return c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		var r io.Reader
		if raw != nil {
			r = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.url(path), r)
		if err != nil {
			return nil, err
		}

		if raw != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		req.Header.Set("Accept", "application/json")

		return req, nil
	})
}

// decode reads the envelope of resp into T, or returns an *APIError.
func decode[T any](resp *http.Response) (T, error) {
	defer resp.Body.Close()

	var zero T

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return zero, apiError(resp.StatusCode, raw)
	}

	var env types.Response[T]
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}

	return env.Data, nil
}

func apiError(status int, raw []byte) *APIError {
	var env types.ErrorResponse
	if err := sonic.Unmarshal(raw, &env); err != nil || env.Message == "" {
		return &APIError{Status: status, Message: http.StatusText(status)}
	}

	return &APIError{Status: status, Code: env.Code, Message: env.Message}
}

// Signup creates an account.
func (c *Client) Signup(ctx context.Context, req types.SignupRequest) (*model.User, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/signup", req)
	if err != nil {
		return nil, err
	}

	user, err := decode[model.User](resp)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Login opens a session; the cookie is kept in the jar.
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/login", types.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	user, err := decode[model.User](resp)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}

	_, err = decode[any](resp)

	return err
}

// Me returns the logged in account.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}

	user, err := decode[model.User](resp)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Upload sends data as name. The content type is detected from the name,
// then from the content.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (types.UploadResult, error) {
	contentType := DetectMimeType(name, data)

	resp, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		var body bytes.Buffer

		w := multipart.NewWriter(&body)

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": name}))
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, err
		}

		if _, err := part.Write(data); err != nil {
			return nil, err
		}

		if err := w.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/files/upload"), &body)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", w.FormDataContentType())

		return req, nil
	})
	if err != nil {
		return types.UploadResult{}, err
	}

	return decode[types.UploadResult](resp)
}

// UploadFile reads path and uploads it under its base name.
func (c *Client) UploadFile(ctx context.Context, path string) (types.UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.UploadResult{}, fmt.Errorf("read %s: %w", path, err)
	}

	return c.Upload(ctx, filepath.Base(path), data)
}

// List returns the caller's files, newest first.
func (c *Client) List(ctx context.Context) ([]types.FileSummary, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/files", nil)
	if err != nil {
		return nil, err
	}

	return decode[[]types.FileSummary](resp)
}

// Download writes the content of id to w and returns the original file
// name announced by the server.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/files/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", apiError(resp.StatusCode, raw)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	name := id
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}

	return name, nil
}

// Delete removes id.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.send(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}

	_, err = decode[any](resp)

	return err
}

// Health returns the aggregate health. A 503 yields the report together
// with an error wrapping ErrUnhealthy.
func (c *Client) Health(ctx context.Context) (types.Health, error) {
	resp, err := c.send(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return types.Health{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Health{}, fmt.Errorf("read response: %w", err)
	}

	var env types.Response[types.Health]
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return types.Health{}, apiError(resp.StatusCode, raw)
	}

	if resp.StatusCode != http.StatusOK || !env.Data.Healthy() {
		return env.Data, fmt.Errorf("%w: %s", ErrUnhealthy, env.Message)
	}

	return env.Data, nil
}
