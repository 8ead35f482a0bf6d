// Package client is a Go client for the customer side of the ordering API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fragisir/automatic-resturent-system/models"
	"github.com/fragisir/automatic-resturent-system/services"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	// Expired is set when the token ran out and a refresh may be enough.
	Expired bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// SessionLost reports whether the session can no longer be refreshed and the
// customer has to scan again.
func (e *APIError) SessionLost() bool {
	return e.StatusCode == http.StatusForbidden
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: env.Message}
		if len(env.Data) > 0 {
			var data struct {
				Expired bool `json:"expired"`
			}
			if json.Unmarshal(env.Data, &data) == nil {
				apiErr.Expired = data.Expired
			}
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) CreateSession(ctx context.Context, tableNumber int) (*services.SessionGrant, error) {
	var grant services.SessionGrant
	err := c.do(ctx, http.MethodPost, "/api/orders/create-session", map[string]int{"tableNumber": tableNumber}, &grant)
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (c *Client) RefreshToken(ctx context.Context, tableNumber int, sessionID string) (*services.TokenGrant, error) {
	var grant services.TokenGrant
	body := map[string]interface{}{"tableNumber": tableNumber, "sessionId": sessionID}
	if err := c.do(ctx, http.MethodPost, "/api/orders/refresh-token", body, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req services.PlaceOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ActiveOrder returns nil when the table has no open order.
func (c *Client) ActiveOrder(ctx context.Context, tableNumber int, token string) (*models.Order, error) {
	var data struct {
		ActiveOrder *models.Order `json:"activeOrder"`
	}
	path := "/api/orders/active/" + strconv.Itoa(tableNumber) + "?token=" + url.QueryEscape(token)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.ActiveOrder, nil
}
