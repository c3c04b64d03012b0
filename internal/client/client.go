package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"focusctl/internal/config"
	"focusctl/internal/types"
)

const defaultBaseURL = "http://127.0.0.1:8600"

// Client is the typed client for the session backend. It owns no timers;
// polling and reconnection live with the callers.
type Client struct {
	baseURL   string
	tokenPath string
	token     string
	http      *http.Client
}

func New() (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	tokenPath, err := config.TokenPath()
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   cfg.ServerURL(),
		tokenPath: tokenPath,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	_ = c.loadToken()
	return c, nil
}

func NewWithBaseURL(baseURL, token string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) StartSession(ctx context.Context, req StartSessionRequest) (*types.WorkSession, error) {
	if strings.TrimSpace(req.TaskID) == "" {
		return nil, errors.New("task id is required")
	}
	var session types.WorkSession
	if err := c.doJSON(ctx, http.MethodPost, "/v1/session/start", req, true, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	if !req.Decision.Valid() {
		return nil, fmt.Errorf("invalid checkout decision: %q", req.Decision)
	}
	var resp CheckoutResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/session/checkout", req, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) PauseSession(ctx context.Context) (*types.WorkSession, error) {
	var session types.WorkSession
	if err := c.doJSON(ctx, http.MethodPost, "/v1/session/pause", nil, true, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) ResumeSession(ctx context.Context, extendCheckout bool) (*types.WorkSession, error) {
	req := ResumeSessionRequest{ExtendCheckout: extendCheckout}
	var session types.WorkSession
	if err := c.doJSON(ctx, http.MethodPost, "/v1/session/resume", req, true, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) Snooze(ctx context.Context, minutes int) (*types.SnoozeResponse, error) {
	if minutes <= 0 {
		minutes = types.DefaultSnoozeMinutes
	}
	var resp types.SnoozeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/session/snooze", SnoozeRequest{SnoozeMinutes: minutes}, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentSession returns nil without error when no session is active.
func (c *Client) CurrentSession(ctx context.Context) (*types.WorkSession, error) {
	var session types.WorkSession
	if err := c.doJSON(ctx, http.MethodGet, "/v1/session/current", nil, true, &session); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if session.ID == "" {
		return nil, nil
	}
	return &session, nil
}

func (c *Client) SessionHistory(ctx context.Context, skip, limit int) ([]*types.WorkSession, error) {
	path := fmt.Sprintf("/v1/session/history?skip=%d&limit=%d", skip, limit)
	var resp SessionsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) SessionsByTask(ctx context.Context, taskID string, skip, limit int) ([]*types.WorkSession, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, errors.New("task id is required")
	}
	path := fmt.Sprintf("/v1/session/by-task/%s?skip=%d&limit=%d", url.PathEscape(taskID), skip, limit)
	var resp SessionsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// UnresponsiveSession returns a session that was never checked out and has
// gone silent, or nil when the backend has none to offer.
func (c *Client) UnresponsiveSession(ctx context.Context) (*types.WorkSession, error) {
	var session types.WorkSession
	if err := c.doJSON(ctx, http.MethodGet, "/v1/session/unresponsive", nil, true, &session); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if session.ID == "" {
		return nil, nil
	}
	return &session, nil
}

// DaySchedule fetches the planned slots for the given date (YYYY-MM-DD).
func (c *Client) DaySchedule(ctx context.Context, date string) ([]types.ScheduleEntry, error) {
	path := "/v1/schedule/day"
	if strings.TrimSpace(date) != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	var resp ScheduleResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) PendingReschedules(ctx context.Context) ([]*types.RescheduleSuggestion, error) {
	var resp ReschedulesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/reschedule/pending", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

func (c *Client) GetReschedule(ctx context.Context, id string) (*types.RescheduleSuggestion, error) {
	var suggestion types.RescheduleSuggestion
	if err := c.doJSON(ctx, http.MethodGet, "/v1/reschedule/"+url.PathEscape(id), nil, true, &suggestion); err != nil {
		return nil, err
	}
	return &suggestion, nil
}

func (c *Client) AcceptReschedule(ctx context.Context, id, reason string) (*types.RescheduleSuggestion, error) {
	return c.decideReschedule(ctx, id, "accept", reason)
}

func (c *Client) RejectReschedule(ctx context.Context, id, reason string) (*types.RescheduleSuggestion, error) {
	return c.decideReschedule(ctx, id, "reject", reason)
}

func (c *Client) decideReschedule(ctx context.Context, id, action, reason string) (*types.RescheduleSuggestion, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("suggestion id is required")
	}
	path := fmt.Sprintf("/v1/reschedule/%s/%s", url.PathEscape(id), action)
	var suggestion types.RescheduleSuggestion
	if err := c.doJSON(ctx, http.MethodPost, path, RescheduleDecisionRequest{Reason: reason}, true, &suggestion); err != nil {
		return nil, err
	}
	return &suggestion, nil
}

func (c *Client) CreatePushSubscription(ctx context.Context, sub *types.PushSubscription) error {
	if sub == nil || strings.TrimSpace(sub.Endpoint) == "" {
		return errors.New("subscription endpoint is required")
	}
	return c.doJSON(ctx, http.MethodPost, "/v1/notifications/push-subscription", sub, true, nil)
}

func (c *Client) DeletePushSubscription(ctx context.Context, endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return errors.New("subscription endpoint is required")
	}
	path := "/v1/notifications/push-subscription?endpoint=" + url.QueryEscape(endpoint)
	return c.doJSON(ctx, http.MethodDelete, path, nil, true, nil)
}

// Heartbeat is the client-side keep-alive frame for the push channel.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/notifications/heartbeat", nil, true, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, requireAuth bool, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requireAuth {
		if err := c.ensureToken(); err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (c *Client) ensureToken() error {
	if strings.TrimSpace(c.token) == "" {
		if err := c.loadToken(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.token) == "" {
		return fmt.Errorf("%w: token not found at %s", ErrUnauthorized, c.tokenPath)
	}
	return nil
}

func (c *Client) loadToken() error {
	if c.tokenPath == "" {
		return nil
	}
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.token = ""
			return nil
		}
		return err
	}
	c.token = strings.TrimSpace(string(data))
	return nil
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error string `json:"error"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}
