package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"streamfs/pkg/models"
)

type putOptions struct {
	description string
	meta        models.Header
}

// PutOption adjusts a single upload.
type PutOption func(*putOptions)

// WithDescription attaches free-form text to the object.
func WithDescription(description string) PutOption {
	return func(o *putOptions) {
		o.description = description
	}
}

// WithMeta attaches caller metadata to the object. Keys travel as
// X-Streamfs-Meta-* headers and come back on downloads.
func WithMeta(meta models.Header) PutOption {
	return func(o *putOptions) {
		o.meta = meta
	}
}

// Put uploads src as the content of (bucket, key), replacing any current
// version, and returns the committed descriptor.
func (c *Client) Put(ctx context.Context, bucket, key string, src io.Reader, opts ...PutOption) (*models.ObjectInfo, error) {
	var opt putOptions
	for _, o := range opts {
		o(&opt)
	}

	header := http.Header{}
	if opt.description != "" {
		header.Set(models.HeaderDescription, opt.description)
	}
	for k, values := range opt.meta {
		for _, v := range values {
			header.Add(models.HeaderMetaPrefix+k, v)
		}
	}

	resp, err := c.do(ctx, http.MethodPut, c.objectURL(bucket, key), src, header)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp, bucket, key)
	}

	var info models.ObjectInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding descriptor: %w", err)
	}
	return &info, nil
}

// Get downloads an object. The returned ReadCloser streams the body and must
// be closed; the descriptor is rebuilt from the response headers.
func (c *Client) Get(ctx context.Context, bucket, key string) (io.ReadCloser, *models.ObjectInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, c.objectURL(bucket, key), nil, nil)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer closeBody(resp)
		return nil, nil, apiError(resp, bucket, key)
	}
	return resp.Body, infoFromHeaders(bucket, key, resp), nil
}

// GetBytes downloads an object wholesale.
func (c *Client) GetBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	body, _, err := c.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = body.Close()
	}()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading %q from bucket %q: %w", key, bucket, err)
	}
	return data, nil
}

// GetInfo returns the current descriptor of (bucket, key) without touching
// chunk data.
func (c *Client) GetInfo(ctx context.Context, bucket, key string) (*models.ObjectInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, c.infoURL(bucket, key), nil, nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp, bucket, key)
	}

	var info models.ObjectInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding descriptor: %w", err)
	}
	return &info, nil
}

// Delete removes an object.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.objectURL(bucket, key), nil, nil)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return apiError(resp, bucket, key)
	}
	return nil
}

// infoFromHeaders rebuilds the descriptor a download response carries in its
// headers. Size comes from Content-Length.
func infoFromHeaders(bucket, key string, resp *http.Response) *models.ObjectInfo {
	info := &models.ObjectInfo{
		Bucket:      bucket,
		Name:        key,
		ID:          resp.Header.Get(models.HeaderID),
		Digest:      resp.Header.Get(models.HeaderDigest),
		Description: resp.Header.Get(models.HeaderDescription),
	}
	if n, err := strconv.ParseUint(resp.Header.Get(models.HeaderChunks), 10, 32); err == nil {
		info.Chunks = uint32(n)
	}
	if resp.ContentLength >= 0 {
		info.Size = uint64(resp.ContentLength)
	}
	if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		info.ModTime = t
	}

	meta := models.Header{}
	for k, values := range resp.Header {
		if !strings.HasPrefix(k, models.HeaderMetaPrefix) {
			continue
		}
		name := strings.TrimPrefix(k, models.HeaderMetaPrefix)
		for _, v := range values {
			meta.Add(name, v)
		}
	}
	if len(meta) > 0 {
		info.Headers = meta
	}
	return info
}
