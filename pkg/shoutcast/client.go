package shoutcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ErrInvalidUTF8 is returned when a fetched document is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("response body is not valid UTF-8")

// Client fetches the small text documents published by a radio aggregator:
// station directories and pointer files.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient returns a Client using httpClient. A nil httpClient means
// http.DefaultClient.
func NewClient(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// GetText performs a single GET and returns the body as a string. Any
// non-2xx status is an error, as is a body that is not valid UTF-8.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Add("accept", "*/*")
	if c.userAgent != "" {
		req.Header.Add("user-agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch %s: HTTP %s", url, resp.Status)
	}

	data, err := io.ReadAll(transform.NewReader(resp.Body, encoding.UTF8Validator))
	if err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return "", fmt.Errorf("%s: %w", url, ErrInvalidUTF8)
		}
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), nil
}
