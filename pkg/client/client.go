// Package client is a Go client for the streamfs gateway API.
//
// Transport failures are retried with backoff; error statuses are not, they
// are mapped back onto the store's error surface so callers can use the same
// errors.Is checks against a remote gateway as against an in-process store.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"streamfs/pkg/log"
	"streamfs/pkg/objstore"
	"streamfs/pkg/stream"
)

const (
	defaultRetryMax     = 3
	defaultRetryWaitMin = 250 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second
)

// ErrRequestFailed wraps transport failures and gateway responses with no
// finer-grained mapping.
var ErrRequestFailed = errors.New("request failed")

// Client talks to one streamfs gateway.
type Client struct {
	base string
	http *retryablehttp.Client
}

// Option adjusts client construction.
type Option func(*Client)

// WithRetryMax caps transport-level retries.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		c.http.RetryMax = n
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http.HTTPClient = hc
	}
}

// New creates a client for the gateway at base, e.g. "http://localhost:9222".
func New(base string, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = defaultRetryMax
	rc.RetryWaitMin = defaultRetryWaitMin
	rc.RetryWaitMax = defaultRetryWaitMax
	rc.Logger = nil
	rc.CheckRetry = transportRetryPolicy

	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: rc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// transportRetryPolicy retries connection and timeout failures only. Error
// statuses carry meaning and must reach the caller, not be retried.
func transportRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil {
		return false, nil
	}
	if err != nil {
		return true, nil
	}
	return false, nil
}

func (c *Client) bucketURL(bucket string) string {
	return c.base + "/v1/bucket/" + bucket
}

// objectURL escapes the key wholesale, slashes included; the gateway
// unescapes the catch-all segment back into the verbatim key.
func (c *Client) objectURL(bucket, key string) string {
	return c.base + "/v1/object/" + bucket + "/" + url.PathEscape(key)
}

func (c *Client) infoURL(bucket, key string) string {
	return c.base + "/v1/info/" + bucket + "/" + url.PathEscape(key)
}

// do runs one request. rawBody follows retryablehttp's accepted body kinds.
func (c *Client) do(ctx context.Context, method, rawURL string, rawBody any, header http.Header) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return resp, nil
}

// apiError turns a non-2xx gateway response into the store's error surface.
// The response body is consumed, not closed.
func apiError(resp *http.Response, bucket, key string) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		// The gateway reports both missing buckets and missing objects as
		// 404; the message distinguishes them.
		if key == "" || strings.HasPrefix(msg, "bucket") {
			return objstore.BucketNotFoundError{Bucket: bucket}
		}
		return objstore.NotFoundError{Bucket: bucket, Key: key}
	case http.StatusConflict:
		return fmt.Errorf("%w: bucket %q", stream.ErrStreamExists, bucket)
	case http.StatusInsufficientStorage:
		return fmt.Errorf("%w: bucket %q", stream.ErrStreamFull, bucket)
	case http.StatusBadRequest:
		if strings.HasPrefix(msg, "invalid bucket name") {
			return fmt.Errorf("%w: %q", objstore.ErrInvalidBucketName, bucket)
		}
		return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, msg)
	}
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close response body")
	}
}
