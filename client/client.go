package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
)

const defaultTimeout = 3 * time.Second

// Client is a small JSON HTTP client with response caching, used for
// outbound lookups against external services.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	userAgent string
	endpoint  string
}

func New(endpoint string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		userAgent: "herdline/1.0",
		endpoint:  endpoint,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// GetJSON fetches endpoint+path and decodes the body into response.
// Successful responses are cached by path.
func (c *Client) GetJSON(ctx context.Context, path string, response any) error {
	if c.endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	cacheKey := "get:" + path
	if x, found := c.cache.Get(cacheKey); found {
		return json.Unmarshal(x.([]byte), response)
	}

	requestURL := c.endpoint + path
	if _, err := url.Parse(requestURL); err != nil {
		return fmt.Errorf("invalid request url %s: %v", requestURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}

	c.cache.Set(cacheKey, []byte(raw), cache.DefaultExpiration)

	return json.Unmarshal(raw, response)
}
