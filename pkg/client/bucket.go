package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"streamfs/pkg/models"
)

// CreateBucket creates a bucket. Fields on req tune retention, size cap,
// storage class and compression; the zero value takes the defaults.
func (c *Client) CreateBucket(ctx context.Context, bucket string, req models.CreateBucketRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding bucket request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, c.bucketURL(bucket), payload, jsonHeader())
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusCreated {
		return apiError(resp, bucket, "")
	}
	return nil
}

// DeleteBucket removes a bucket and every object in it.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.bucketURL(bucket), nil, nil)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return apiError(resp, bucket, "")
	}
	return nil
}

// BucketStatus reports a bucket's configuration and usage.
func (c *Client) BucketStatus(ctx context.Context, bucket string) (*models.BucketStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, c.bucketURL(bucket), nil, nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp, bucket, "")
	}

	var status models.BucketStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding bucket status: %w", err)
	}
	return &status, nil
}

// ListObjects returns the current descriptor of every live object in the
// bucket, in commit order.
func (c *Client) ListObjects(ctx context.Context, bucket string) ([]*models.ObjectInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, c.bucketURL(bucket)+"/objects", nil, nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp, bucket, "")
	}

	var listing models.ObjectListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decoding object listing: %w", err)
	}
	return listing.Objects, nil
}

// NodeInfo reports the gateway's version, uptime and buckets.
func (c *Client) NodeInfo(ctx context.Context) (*models.NodeInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, c.base+"/v1/node/info", nil, nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp, "", "")
	}

	var info models.NodeInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding node info: %w", err)
	}
	return &info, nil
}

func jsonHeader() http.Header {
	return http.Header{"Content-Type": []string{"application/json"}}
}
