package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	contentTypeJSON   = "application/json; charset=utf-8"
	headerRequestID   = "X-Request-ID"
	maxErrorBodyBytes = 1 << 20
)

// Client talks to the booking API. A Client without a token source sends anonymous requests,
// which is what the auth endpoints expect.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. The client is copied so later changes
// made through other options do not leak into the caller's value.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		copied := *hc
		c.httpClient = &copied
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithCookieJar makes the client keep cookies the way a browser would, so the refresh cookie
// is both stored from Set-Cookie and sent back to the API origin.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("[api New] invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[api New] base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithTokenSource returns a copy of the client whose requests carry
// "Authorization: Bearer <token>" taken from ts at send time.
func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Client {
	hc := *c.httpClient
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = &oauth2.Transport{Source: ts, Base: base}
	return &Client{baseURL: c.baseURL, httpClient: &hc}
}

func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Do sends the request and returns the normalised data. Any failure is returned as an
// *ErrorDetail so callers can inspect the message, the field errors and the kind.
func (c *Client) Do(ctx context.Context, req *Request) (json.RawMessage, error) {
	resp, requestID, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Str("request_id", requestID).Err(err).Msg("reading response body")
		return nil, transportError(err)
	}

	data, detail := Normalize(resp.StatusCode, body)
	if detail != nil {
		log.Debug().
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Str("error", detail.Message).
			Msg("api call rejected")
		return nil, detail
	}
	return data, nil
}

// Download streams a successful binary response into w and returns the server-suggested
// file name, if any. Failures are normalised exactly like Do.
func (c *Client) Download(ctx context.Context, req *Request, w io.Writer) (string, error) {
	resp, _, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		_, detail := Normalize(resp.StatusCode, body)
		return "", detail
	}

	// A JSON answer to a download is an envelope, never the file.
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "application/json" {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		if _, detail := Normalize(resp.StatusCode, body); detail != nil {
			return "", detail
		}
		return "", &ErrorDetail{Status: resp.StatusCode, Message: "expected a file, got a json response", Kind: errors.ErrMalformedResponse}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", transportError(err)
	}
	return attachmentFilename(resp.Header.Get("Content-Disposition")), nil
}

func (c *Client) send(ctx context.Context, req *Request) (*http.Response, string, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, "", &ErrorDetail{Message: err.Error(), Kind: errors.ErrUnsupportedRequest}
	}

	requestID := uuid.New().String()
	httpReq.Header.Set(headerRequestID, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Warn().
			Str("request_id", requestID).
			Str("method", httpReq.Method).
			Str("path", httpReq.URL.Path).
			Err(err).
			Msg("api call failed")
		return nil, requestID, transportError(err)
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", httpReq.Method).
		Str("path", httpReq.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api call")
	return resp, requestID, nil
}

func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	if req == nil || req.Method == "" {
		return nil, fmt.Errorf("[api build] request method is required")
	}

	u := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case len(req.Parts) > 0 || len(req.Files) > 0:
		buf, ct, err := encodeMultipart(req.Parts, req.Files)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.Body != nil:
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("[api build] encoding body: %w", err)
		}
		body, contentType = bytes.NewReader(b), contentTypeJSON
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("[api build] %w", err)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

// transportError maps a failed round trip onto ErrorDetail. A missing access token surfaces
// from the oauth2 transport and is reported as unauthorized rather than as a network fault.
func transportError(err error) *ErrorDetail {
	if errors.Is(err, errors.ErrNoAccessToken) {
		return &ErrorDetail{Message: "not signed in", Kind: errors.ErrUnauthorized}
	}
	return &ErrorDetail{Message: "network error: " + err.Error(), Kind: errors.ErrTransport}
}

func attachmentFilename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// Call sends req and decodes the data member into T.
func Call[T any](ctx context.Context, c *Client, req *Request) Result[T] {
	data, err := c.Do(ctx, req)
	if err != nil {
		var detail *ErrorDetail
		if !errors.As(err, &detail) {
			detail = transportError(err)
		}
		return Err[T](detail)
	}
	return Decode[T](data, nil)
}
