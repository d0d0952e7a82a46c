// Package inventoryclient implements domain.StockLedger against the
// inventory service's HTTP API.
package inventoryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/joao-fontenele/posflow/internal/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Reserve asks the inventory service to reserve quantity for the product.
// A 409 from the service maps to domain.ErrInsufficientStock.
func (c *Client) Reserve(ctx context.Context, productID string, quantity int) error {
	status, err := c.post(ctx, fmt.Sprintf("%s/products/%s/reserve", c.baseURL, productID), quantity)
	if err != nil {
		return fmt.Errorf("reserve stock for product %s: %w", productID, err)
	}

	switch status {
	case http.StatusOK:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("product %s: %w", productID, domain.ErrInsufficientStock)
	case http.StatusNotFound:
		return fmt.Errorf("unknown product %s", productID)
	default:
		return fmt.Errorf("inventory service returned status %d for product %s", status, productID)
	}
}

// Release returns quantity to the product's on-hand stock.
func (c *Client) Release(ctx context.Context, productID string, quantity int) error {
	status, err := c.post(ctx, fmt.Sprintf("%s/products/%s/release", c.baseURL, productID), quantity)
	if err != nil {
		return fmt.Errorf("release stock for product %s: %w", productID, err)
	}

	if status != http.StatusOK {
		return fmt.Errorf("inventory service returned status %d for product %s", status, productID)
	}

	return nil
}

func (c *Client) post(ctx context.Context, url string, quantity int) (int, error) {
	data, err := json.Marshal(map[string]int{"quantity": quantity})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()

	return resp.StatusCode, nil
}
