package main

import (
	"context"

	focusclient "focusctl/internal/client"
	"focusctl/internal/types"
)

type clientFactory func() (commandClient, error)

type commandClient interface {
	Health(ctx context.Context) (*focusclient.HealthResponse, error)
	StartSession(ctx context.Context, req focusclient.StartSessionRequest) (*types.WorkSession, error)
	Checkout(ctx context.Context, req focusclient.CheckoutRequest) (*focusclient.CheckoutResponse, error)
	PauseSession(ctx context.Context) (*types.WorkSession, error)
	ResumeSession(ctx context.Context, extendCheckout bool) (*types.WorkSession, error)
	Snooze(ctx context.Context, minutes int) (*types.SnoozeResponse, error)
	CurrentSession(ctx context.Context) (*types.WorkSession, error)
	SessionHistory(ctx context.Context, skip, limit int) ([]*types.WorkSession, error)
	SessionsByTask(ctx context.Context, taskID string, skip, limit int) ([]*types.WorkSession, error)
	UnresponsiveSession(ctx context.Context) (*types.WorkSession, error)
	DaySchedule(ctx context.Context, date string) ([]types.ScheduleEntry, error)
	PendingReschedules(ctx context.Context) ([]*types.RescheduleSuggestion, error)
	GetReschedule(ctx context.Context, id string) (*types.RescheduleSuggestion, error)
	AcceptReschedule(ctx context.Context, id, reason string) (*types.RescheduleSuggestion, error)
	RejectReschedule(ctx context.Context, id, reason string) (*types.RescheduleSuggestion, error)
	CreatePushSubscription(ctx context.Context, sub *types.PushSubscription) error
	DeletePushSubscription(ctx context.Context, endpoint string) error
	RunUI(version string) error
}

type focusClientAdapter struct {
	client *focusclient.Client
}

func newFocusClient() (commandClient, error) {
	client, err := focusclient.New()
	if err != nil {
		return nil, err
	}
	return &focusClientAdapter{client: client}, nil
}

func (c *focusClientAdapter) Health(ctx context.Context) (*focusclient.HealthResponse, error) {
	return c.client.Health(ctx)
}

func (c *focusClientAdapter) StartSession(ctx context.Context, req focusclient.StartSessionRequest) (*types.WorkSession, error) {
	return c.client.StartSession(ctx, req)
}

func (c *focusClientAdapter) Checkout(ctx context.Context, req focusclient.CheckoutRequest) (*focusclient.CheckoutResponse, error) {
	return c.client.Checkout(ctx, req)
}

func (c *focusClientAdapter) PauseSession(ctx context.Context) (*types.WorkSession, error) {
	return c.client.PauseSession(ctx)
}

func (c *focusClientAdapter) ResumeSession(ctx context.Context, extendCheckout bool) (*types.WorkSession, error) {
	return c.client.ResumeSession(ctx, extendCheckout)
}

func (c *focusClientAdapter) Snooze(ctx context.Context, minutes int) (*types.SnoozeResponse, error) {
	return c.client.Snooze(ctx, minutes)
}

func (c *focusClientAdapter) CurrentSession(ctx context.Context) (*types.WorkSession, error) {
	return c.client.CurrentSession(ctx)
}

func (c *focusClientAdapter) SessionHistory(ctx context.Context, skip, limit int) ([]*types.WorkSession, error) {
	return c.client.SessionHistory(ctx, skip, limit)
}

func (c *focusClientAdapter) SessionsByTask(ctx context.Context, taskID string, skip, limit int) ([]*types.WorkSession, error) {
	return c.client.SessionsByTask(ctx, taskID, skip, limit)
}

func (c *focusClientAdapter) UnresponsiveSession(ctx context.Context) (*types.WorkSession, error) {
	return c.client.UnresponsiveSession(ctx)
}

func (c *focusClientAdapter) DaySchedule(ctx context.Context, date string) ([]types.ScheduleEntry, error) {
	return c.client.DaySchedule(ctx, date)
}

func (c *focusClientAdapter) PendingReschedules(ctx context.Context) ([]*types.RescheduleSuggestion, error) {
	return c.client.PendingReschedules(ctx)
}

func (c *focusClientAdapter) GetReschedule(ctx context.Context, id string) (*types.RescheduleSuggestion, error) {
	return c.client.GetReschedule(ctx, id)
}

func (c *focusClientAdapter) AcceptReschedule(ctx context.Context, id, reason string) (*types.RescheduleSuggestion, error) {
	return c.client.AcceptReschedule(ctx, id, reason)
}

func (c *focusClientAdapter) RejectReschedule(ctx context.Context, id, reason string) (*types.RescheduleSuggestion, error) {
	return c.client.RejectReschedule(ctx, id, reason)
}

func (c *focusClientAdapter) CreatePushSubscription(ctx context.Context, sub *types.PushSubscription) error {
	return c.client.CreatePushSubscription(ctx, sub)
}

func (c *focusClientAdapter) DeletePushSubscription(ctx context.Context, endpoint string) error {
	return c.client.DeletePushSubscription(ctx, endpoint)
}

func (c *focusClientAdapter) RunUI(version string) error {
	return runInteractiveUI(c.client, version)
}
