package coinbase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	apiBase    = "https://api.coinbase.com"
	apiVersion = "2021-06-25"
	pageLimit  = 100
)

// Client is a read-only client for the Coinbase v2 wallet API.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, apiSecret string) *Client {
	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    apiBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// pagination is the continuation object embedded in list responses.
type pagination struct {
	NextURI string `json:"next_uri"`
}

// envelope is the common list response shape: a data array plus an
// optional pagination object.
type envelope struct {
	Pagination *pagination       `json:"pagination"`
	Data       []json.RawMessage `json:"data"`
}

func (c *Client) sign(timestamp, method, path string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(timestamp + method + path))
	return hex.EncodeToString(h.Sum(nil))
}

// ListAccounts fetches one page of the account list.
func (c *Client) ListAccounts(ctx context.Context, cursor string) ([]json.RawMessage, string, error) {
	return c.list(ctx, "/v2/accounts", cursor)
}

// ListResource fetches one page of an account sub-collection
// (transactions, buys, sells, deposits, withdrawals).
func (c *Client) ListResource(ctx context.Context, accountID, resource, cursor string) ([]json.RawMessage, string, error) {
	return c.list(ctx, fmt.Sprintf("/v2/accounts/%s/%s", accountID, resource), cursor)
}

func (c *Client) list(ctx context.Context, basePath, cursor string) ([]json.RawMessage, string, error) {
	path := fmt.Sprintf("%s?order=asc&limit=%d", basePath, pageLimit)
	if cursor != "" {
		path += "&starting_after=" + cursor
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", err
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	req.Header.Set("CB-ACCESS-KEY", c.apiKey)
	req.Header.Set("CB-ACCESS-SIGN", c.sign(timestamp, http.MethodGet, path))
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("CB-VERSION", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("coinbase GET %s: status %d: %s", basePath, resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, "", fmt.Errorf("coinbase GET %s: decode: %w", basePath, err)
	}

	next := ""
	if env.Pagination != nil {
		next = env.Pagination.NextURI
	}
	return env.Data, next, nil
}
