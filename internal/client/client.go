package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/domain"
)

var (
	_ app.QuestionProvider = (*Client)(nil)
	_ app.ConfigProvider   = (*Client)(nil)
)

// Client fetches question sets and the session configuration from a quiz server, so a
// learner can run attempts locally against a remote catalog.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// QuestionSet calls GET /quiz-questions. A 404 or an empty array is domain.ErrNotFound.
func (c *Client) QuestionSet(ctx context.Context, sel domain.Selection) (domain.QuestionSet, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("level", sel.Level)
	q.Set("class", sel.Class)
	q.Set("subject", sel.Subject)

	var qs domain.QuestionSet
	status, err := c.getJSON(ctx, "/quiz-questions?"+q.Encode(), &qs)
	if status == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch questions for %s: %w", sel, err)
	}
	if len(qs) == 0 {
		return nil, domain.ErrNotFound
	}
	return qs, nil
}

// SessionConfig calls GET /config. Every failure is reported as ErrConfigUnavailable so
// callers can fall back to defaults.
func (c *Client) SessionConfig(ctx context.Context) (domain.SessionConfig, error) {
	var cfg domain.SessionConfig
	if _, err := c.getJSON(ctx, "/config", &cfg); err != nil {
		return domain.SessionConfig{}, fmt.Errorf("%w: %v", domain.ErrConfigUnavailable, err)
	}
	return cfg, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		if body.Error != "" {
			return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
		}
		return resp.StatusCode, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
