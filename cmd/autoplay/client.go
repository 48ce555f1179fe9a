package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/service"
)

// Client talks to the REST API. Transport failures and 5xx answers are
// retried with backoff; 4xx answers fail immediately.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
	attempts  uint
	delay     time.Duration
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		attempts: 4,
		delay:    200 * time.Millisecond,
	}
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.status, http.StatusText(e.status), e.body)
}

// do sends one request with retries and decodes a 2xx answer into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode >= 300 {
				apiErr := &apiError{status: resp.StatusCode, body: string(bytes.TrimSpace(body))}
				if resp.StatusCode < 500 {
					return retry.Unrecoverable(apiErr)
				}
				return apiErr
			}
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode %s %s: %w", method, path, err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Str("path", path).Msg("request-failed-retrying")
		}),
	)
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	var body map[string]string
	if configID != "" {
		body = map[string]string{"config_id": configID}
	}
	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = session.ID
	return &session, nil
}

func (c *Client) GetSession(ctx context.Context) (*service.SessionInfo, error) {
	var session service.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+c.sessionID, nil, &session); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp struct {
		State *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+c.sessionID+"/reset", nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return resp.State, nil
}

func (c *Client) Advice(ctx context.Context) ([]engine.ActionAdvice, error) {
	var resp struct {
		Advice []engine.ActionAdvice `json:"advice"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+c.sessionID+"/advice", nil, &resp); err != nil {
		return nil, fmt.Errorf("advice: %w", err)
	}
	return resp.Advice, nil
}

func (c *Client) Move(ctx context.Context, action engine.Action) (*service.MoveResult, error) {
	var result service.MoveResult
	req := map[string]any{"action": action}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+c.sessionID+"/move", req, &result); err != nil {
		return nil, fmt.Errorf("move %d: %w", action, err)
	}
	return &result, nil
}
