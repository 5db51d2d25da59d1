package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to Supabase Storage over its REST API. baseURL is the
// /storage/v1 root, e.g. https://xyz.supabase.co/storage/v1.
type Client struct {
	baseURL string
	bucket  string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, bucket, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload stores the bytes at the given object path and returns the public
// download URL.
func (c *Client) Upload(ctx context.Context, path string, content []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, path)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("storage rejected upload (status %d): %s", resp.StatusCode, string(body))
	}

	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, c.bucket, path), nil
}

// Delete removes the object behind a public URL produced by Upload.
func (c *Client) Delete(ctx context.Context, fileURL string) error {
	marker := "/object/public/"
	idx := strings.Index(fileURL, marker)
	if idx < 0 {
		return fmt.Errorf("not a storage URL: %s", fileURL)
	}
	objectPath := fileURL[idx+len(marker):]

	url := fmt.Sprintf("%s/object/%s", c.baseURL, objectPath)

	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storage delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("storage rejected delete (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "OptiraComparateur/1.0")
}
