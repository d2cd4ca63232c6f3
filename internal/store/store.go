package store

import (
	"context"
	"errors"
	"time"

	"daynav/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Trips
	CreateTrip(ctx context.Context, trip model.Trip) (id string, err error)
	GetTrip(ctx context.Context, id string) (model.Trip, error)
	ListTrips(ctx context.Context, cursor string, limit int) ([]model.TripSummary, string, error)

	// Plans
	SavePlan(ctx context.Context, plan model.DayPlan) error
	GetPlan(ctx context.Context, id string) (model.DayPlan, error)
	ListPlans(ctx context.Context, tripID, dayID, cursor string, limit int) ([]model.DayPlan, string, error)

	// Webhook subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Webhook delivery queue
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
	ListWebhookDeliveries(ctx context.Context, status, cursor string, limit int) ([]map[string]any, string, error)

	// Ping reports backend reachability for readiness checks.
	Ping(ctx context.Context) error
}

// WebhookDelivery is one queued delivery attempt handed to the worker.
type WebhookDelivery struct {
	ID             string
	SubscriptionID string
	EventType      string
	URL            string
	Secret         string
	Payload        []byte
	Attempts       int
}

var ErrNotFound = errors.New("not found")
