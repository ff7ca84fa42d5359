// Package peer pushes full dataset snapshots directly between two running
// instances. The receiving side imports with destructive-replace semantics;
// there is no merge or conflict resolution.
package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"league-tracker/internal/config"
	"league-tracker/internal/snapshot"
)

const syncPath = "/v1/sync"

type Client struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		client: &fasthttp.Client{
			MaxConnsPerHost:     4,
			ReadTimeout:         cfg.SyncTimeout,
			WriteTimeout:        cfg.SyncTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		timeout: cfg.SyncTimeout,
		logger:  logger,
	}
}

// PushResult reports what the remote instance accepted.
type PushResult struct {
	Players int `json:"players"`
	Matches int `json:"matches"`
}

// Push sends the payload to the peer's sync endpoint. addr is the peer's
// base URL, e.g. http://192.168.1.20:8080.
func (c *Client) Push(ctx context.Context, addr string, payload *snapshot.Payload) (*PushResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimSuffix(addr, "/") + syncPath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	c.logger.Info().
		Str("peer", addr).
		Int("players", len(payload.Players)).
		Int("matches", len(payload.Matches)).
		Msg("pushing snapshot to peer")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Error().Err(err).Str("peer", addr).Msg("peer push failed")
		return nil, fmt.Errorf("failed to reach peer %s: %w", addr, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("peer %s rejected snapshot: status %d", addr, resp.StatusCode())
	}

	var result PushResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode peer response: %w", err)
	}

	c.logger.Info().
		Str("peer", addr).
		Int("players", result.Players).
		Int("matches", result.Matches).
		Msg("snapshot accepted by peer")
	return &result, nil
}
