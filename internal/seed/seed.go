// Package seed populates a running storefront with a demo catalog through
// its public API, authenticating as an administrator.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Product is the body posted to POST /api/v1/products.
type Product struct {
	Name           string            `json:"name"`
	Category       string            `json:"category"`
	Brand          string            `json:"brand,omitempty"`
	Description    string            `json:"description,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Price          int64             `json:"price"`
	OriginalPrice  int64             `json:"original_price,omitempty"`
	Discount       int               `json:"discount,omitempty"`
	Stock          int               `json:"stock"`
	Featured       bool              `json:"featured"`
	Rating         float64           `json:"rating"`
}

// Client talks to a storefront API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	token   string
}

// NewClient creates a seed client for the API at baseURL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Login obtains an access token used by subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var res struct {
		AccessToken string `json:"access_token"`
		Identity    struct {
			Role string `json:"role"`
		} `json:"identity"`
	}
	if err := c.post(ctx, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if res.Identity.Role != "admin" {
		return fmt.Errorf("login: account %s is not an administrator", email)
	}
	c.token = res.AccessToken
	return nil
}

// CreateProducts posts every product and returns how many were created.
// Individual failures are logged and skipped.
func (c *Client) CreateProducts(ctx context.Context, products []Product) (int, error) {
	if c.token == "" {
		return 0, fmt.Errorf("create products: not logged in")
	}

	created := 0
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		var out struct {
			ID   string `json:"id"`
			Slug string `json:"slug"`
		}
		if err := c.post(ctx, "/api/v1/products", p, &out); err != nil {
			c.logger.Warn("product not created",
				slog.String("name", p.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		created++
		c.logger.Info("product created",
			slog.String("product_id", out.ID),
			slog.String("slug", out.Slug),
		)
	}
	return created, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("HTTP %d: unmarshal response: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 {
		if env.Error != nil {
			return fmt.Errorf("HTTP %d: %s: %s", resp.StatusCode, env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return nil
}
