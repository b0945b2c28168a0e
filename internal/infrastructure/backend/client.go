// Package backend is the HTTP client for the orders backend collaborator:
// the bulk import endpoint (precheck and commit) and the location
// reference endpoints consumed by the resolver.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	importerModel "deliveryops-backend/internal/domains/importer/model"
	locationModel "deliveryops-backend/internal/domains/location/model"

	"github.com/rs/zerolog/log"
)

// Client talks to the orders backend over HTTP. It satisfies both
// importer/service.OrdersGateway and location/service.Source.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a backend client. A zero timeout defaults to 30s.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned HTTP %d: %s", e.StatusCode, e.Body)
}

// ImportOrders posts the grouped payload to POST /orders/import. With
// CheckOnly set the backend only reports duplicate warnings; otherwise it
// commits and returns the success count.
func (c *Client) ImportOrders(ctx context.Context, req importerModel.ImportOrdersRequest) (*importerModel.ImportResult, error) {
	var result importerModel.ImportResult
	if err := c.post(ctx, "/orders/import", req, &result); err != nil {
		return nil, err
	}

	log.Debug().
		Bool("check_only", req.CheckOnly).
		Int("orders", len(req.Orders)).
		Int("success_count", result.SuccessCount).
		Int("warnings", len(result.Warnings)).
		Msg("Orders import call completed")

	return &result, nil
}

// Governorates fetches the governorate reference list.
func (c *Client) Governorates(ctx context.Context) ([]locationModel.Governorate, error) {
	var out []locationModel.Governorate
	if err := c.get(ctx, "/locations/governorates", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cities fetches the city reference list for all governorates.
func (c *Client) Cities(ctx context.Context) ([]locationModel.City, error) {
	var out []locationModel.City
	if err := c.get(ctx, "/locations/cities", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Keep a bounded slice of the body for the error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}
