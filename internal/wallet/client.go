// Package wallet is the HTTP client for the external token-transfer
// service. The service is a black box: it either returns a transaction
// reference or fails, and nothing here may influence ledger state.
package wallet

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type Config struct {
	BaseURL string `json:"baseUrl"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{},
	}
}

type transferRequest struct {
	WalletAddress string          `json:"wallet_address"`
	TokenAmount   decimal.Decimal `json:"token_amount"`
}

type transferResponse struct {
	TxHash string `json:"tx_hash"`
	Error  string `json:"error,omitempty"`
}

// Transfer requests a token transfer to the given wallet address and returns
// the transaction reference. The caller bounds the call through ctx.
func (c *Client) Transfer(ctx context.Context, walletAddress string, amount decimal.Decimal) (string, error) {
	body, err := json.Marshal(transferRequest{
		WalletAddress: walletAddress,
		TokenAmount:   amount,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/transfer", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transfer request failed: %w", err)
	}
	defer resp.Body.Close()

	var result transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode transfer response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if result.Error != "" {
			return "", fmt.Errorf("transfer rejected: %s", result.Error)
		}
		return "", fmt.Errorf("transfer rejected with status %d", resp.StatusCode)
	}

	if result.TxHash == "" {
		return "", fmt.Errorf("transfer response missing tx hash")
	}

	return result.TxHash, nil
}
