package store

import (
	"context"
	"errors"
	"time"

	"daynav/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Settings
	GetSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, s model.Settings) (model.Settings, error)

	// Errands
	CreateErrand(ctx context.Context, in model.ErrandIn) (model.ErrandOut, error)
	ListErrands(ctx context.Context) ([]model.ErrandOut, error)
	GetErrand(ctx context.Context, id string) (model.ErrandOut, error)
	DeleteErrand(ctx context.Context, id string) error

	// Plans
	SavePlan(ctx context.Context, p model.Plan) error
	GetPlan(ctx context.Context, id string) (model.Plan, error)
	ListPlans(ctx context.Context, date string, limit int) ([]model.Plan, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
}

var ErrNotFound = errors.New("not found")
