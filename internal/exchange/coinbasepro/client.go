package coinbasepro

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	apiBase   = "https://api.exchange.coinbase.com"
	pageLimit = 100
)

// Client is a read-only client for the Coinbase Pro (exchange) API.
// Pagination uses the `after` query parameter with the cursor returned in
// the CB-AFTER response header.
type Client struct {
	apiKey     string
	apiSecret  string
	passphrase string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, apiSecret, passphrase string) *Client {
	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		passphrase: passphrase,
		baseURL:    apiBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// sign produces the CB-ACCESS-SIGN value: HMAC-SHA256 with the
// base64-decoded secret over timestamp+method+path, base64-encoded.
func (c *Client) sign(timestamp, method, path string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("decode api secret: %w", err)
	}
	h := hmac.New(sha256.New, key)
	h.Write([]byte(timestamp + method + path))
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, nil, err
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signature, err := c.sign(timestamp, http.MethodGet, path)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("CB-ACCESS-KEY", c.apiKey)
	req.Header.Set("CB-ACCESS-SIGN", signature)
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("CB-ACCESS-PASSPHRASE", c.passphrase)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("coinbase-pro GET %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	return body, resp.Header, nil
}

// GetProducts lists all tradeable pairs.
func (c *Client) GetProducts(ctx context.Context) ([]Product, error) {
	body, _, err := c.get(ctx, "/products")
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// ListAccounts lists all trading accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]json.RawMessage, error) {
	body, _, err := c.get(ctx, "/accounts")
	if err != nil {
		return nil, err
	}
	var accounts []json.RawMessage
	if err := json.Unmarshal(body, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, nil
}

// ListLedger fetches one page of an account's history.
func (c *Client) ListLedger(ctx context.Context, accountID, cursor string) ([]json.RawMessage, string, error) {
	path := fmt.Sprintf("/accounts/%s/ledger?limit=%d", accountID, pageLimit)
	return c.listPaged(ctx, path, cursor)
}

// ListFills fetches one page of fills for a product.
func (c *Client) ListFills(ctx context.Context, productID, cursor string) ([]json.RawMessage, string, error) {
	path := fmt.Sprintf("/fills?product_id=%s&limit=%d", productID, pageLimit)
	return c.listPaged(ctx, path, cursor)
}

func (c *Client) listPaged(ctx context.Context, path, cursor string) ([]json.RawMessage, string, error) {
	if cursor != "" {
		path += "&after=" + cursor
	}
	body, header, err := c.get(ctx, path)
	if err != nil {
		return nil, "", err
	}
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, "", fmt.Errorf("decode page %s: %w", path, err)
	}

	// A short page is terminal regardless of the continuation header.
	next := ""
	if len(records) == pageLimit {
		next = header.Get("Cb-After")
	}
	return records, next, nil
}
