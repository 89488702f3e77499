// Package stats talks to the persistence collaborator that owns users, XP
// and the leaderboard. Every call made from the realtime path is
// fire-and-forget: failures are logged and never block or fail gameplay.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
)

type User struct {
	Address  string `json:"address"`
	Username string `json:"username,omitempty"`
	XP       int    `json:"xp"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Address  string `json:"address"`
	Username string `json:"username,omitempty"`
	XP       int    `json:"xp"`
}

type Payment struct {
	Reference string  `json:"reference"`
	Address   string  `json:"address"`
	Amount    float64 `json:"amount"`
}

// Client is the HTTP client for the persistence service. The address is
// resolved through consul on each call (cached); when discovery yields
// nothing the configured static fallback is used.
type Client struct {
	httpClient   *http.Client
	cache        *DiscoveryCache
	serviceName  string
	fallbackAddr string
}

func NewClient(cache *DiscoveryCache, serviceName, fallbackAddr string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		cache:        cache,
		serviceName:  serviceName,
		fallbackAddr: fallbackAddr,
	}
}

func (c *Client) baseURL() (string, error) {
	addr := ""
	if c.cache != nil {
		addr = c.cache.Discover(c.serviceName)
	}
	if addr == "" {
		addr = c.fallbackAddr
	}
	if addr == "" {
		return "", fmt.Errorf("stats service %q is currently unavailable", c.serviceName)
	}
	return "http://" + addr, nil
}

func (c *Client) GetUser(ctx context.Context, address string) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/users/"+address, nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateUserIfNotExists(ctx context.Context, address, username string) error {
	body := map[string]string{"address": address, "username": username}
	return c.do(ctx, http.MethodPost, "/users", body, nil)
}

// UpdateUserXP credits xpDelta to address and bumps the win or loss
// counter. Called fire-and-forget after arbitration.
func (c *Client) UpdateUserXP(ctx context.Context, address string, xpDelta int, isWin bool) error {
	body := map[string]any{"address": address, "xpDelta": xpDelta, "isWin": isWin}
	return c.do(ctx, http.MethodPost, "/users/"+address+"/xp", body, nil)
}

func (c *Client) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leaderboard?limit=%d", limit), nil, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) RecordPayment(ctx context.Context, p Payment) error {
	return c.do(ctx, http.MethodPost, "/payments", p, nil)
}

// do issues one request with up to three attempts and a doubling backoff,
// decoding a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	base, err := c.baseURL()
	if err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request for %s: %w", path, err)
		}
	}

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
		if err != nil {
			return fmt.Errorf("build request for %s: %w", path, err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				if out != nil {
					err = json.NewDecoder(resp.Body).Decode(out)
				}
				resp.Body.Close()
				if err != nil {
					return fmt.Errorf("decode response from %s: %w", path, err)
				}
				return nil
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("%s %s: status %s", method, path, resp.Status)
		} else {
			lastErr = err
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return fmt.Errorf("%s %s failed after %d attempts: %w", method, path, maxAttempts, lastErr)
}
