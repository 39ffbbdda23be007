package novadax

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiBase = "https://api.novadax.com"

// Balance is one currency balance on the account.
type Balance struct {
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
	Hold      string `json:"hold"`
}

type balanceResponse struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Data    []Balance `json:"data"`
}

// Client is a read-only client for the NovaDAX account API.
type Client struct {
	accessKey  string
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(accessKey, secretKey string) *Client {
	return &Client{
		accessKey:  accessKey,
		secretKey:  secretKey,
		baseURL:    apiBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// sign produces the hex HMAC-SHA256 signature over the request method,
// path, sorted query string and millisecond timestamp, newline-joined.
// The query part is omitted entirely when the request carries none.
func (c *Client) sign(method, path, query, timestamp string) string {
	parts := []string{method, path}
	if query != "" {
		parts = append(parts, query)
	}
	parts = append(parts, timestamp)

	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

// GetBalances fetches all account balances.
func (c *Client) GetBalances(ctx context.Context) ([]Balance, error) {
	const path = "/v1/account/getBalance"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())
	req.Header.Set("X-Nova-Access-Key", c.accessKey)
	req.Header.Set("X-Nova-Signature", c.sign(http.MethodGet, path, "", timestamp))
	req.Header.Set("X-Nova-Timestamp", timestamp)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("novadax GET %s: status %d: %s", path, resp.StatusCode, string(body))
	}

	var parsed balanceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode balances: %w", err)
	}
	if parsed.Code != "A10000" {
		return nil, fmt.Errorf("novadax GET %s: code %s: %s", path, parsed.Code, parsed.Message)
	}
	return parsed.Data, nil
}
