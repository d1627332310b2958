// Package cms fetches the push-notification feed from the content service.
package cms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/vietddude/notifier/internal/core/domain"
)

const (
	pushNotificationsPath = "/api/push-notifications"
	maxResponseBytes      = 16 << 20
)

// Config holds CMS client settings.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client reads the CMS push-notification feed.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxBody    int64
}

// NewClient creates a CMS client. A zero timeout defaults to 10s.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    maxResponseBytes,
	}
}

type feedResponse struct {
	Data []feedEntry `json:"data"`
}

type feedEntry struct {
	ID       int64          `json:"id"`
	Account  string         `json:"account"`
	Data     map[string]any `json:"data"`
	Template struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
	} `json:"notification_template"`
}

// PushNotifications returns the whole feed. Entries without an account are dropped.
func (c *Client) PushNotifications(ctx context.Context) ([]domain.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pushNotificationsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cms request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("cms response exceeds %d bytes", c.maxBody)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cms http %d: %s", resp.StatusCode, string(body))
	}

	var parsed feedResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(parsed.Data))
	for _, e := range parsed.Data {
		if e.Account == "" {
			continue
		}
		items = append(items, domain.FeedItem{
			ID:      e.ID,
			Account: e.Account,
			Data:    e.Data,
			Template: domain.FeedTemplate{
				Title:       e.Template.Title,
				Description: e.Template.Description,
				URL:         e.Template.URL,
			},
		})
	}
	return items, nil
}
