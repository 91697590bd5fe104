package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"daynav/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	settings *model.Settings
	errands  map[string]model.ErrandOut
	order    []string // errand ids in insertion order
	plans    map[string]model.Plan
	planIDs  []string // plan ids in insertion order
	subs     map[string]model.Subscription
	// Webhooks queue state
	deliveries  []string
	deliveryMap map[string]*memDelivery
}

func NewMemory() *Memory {
	return &Memory{
		errands:     map[string]model.ErrandOut{},
		plans:       map[string]model.Plan{},
		subs:        map[string]model.Subscription{},
		deliveryMap: map[string]*memDelivery{},
	}
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
}

func (m *Memory) GetSettings(ctx context.Context) (model.Settings, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	if m.settings == nil { return model.Settings{}, ErrNotFound }
	return *m.settings, nil
}

func (m *Memory) SaveSettings(ctx context.Context, s model.Settings) (model.Settings, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	cp := s
	m.settings = &cp
	return s, nil
}

func (m *Memory) CreateErrand(ctx context.Context, in model.ErrandIn) (model.ErrandOut, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	id := uuid.New().String()
	out := model.ErrandOut{
		ID:             id,
		Title:          in.Title,
		Address:        in.Address,
		ServiceMinutes: in.ServiceMinutes,
		Window:         in.Window,
		Notes:          in.Notes,
		CreatedAt:      time.Now().UTC(),
	}
	if in.Location != nil { out.Location = *in.Location }
	m.errands[id] = out
	m.order = append(m.order, id)
	return out, nil
}

func (m *Memory) ListErrands(ctx context.Context) ([]model.ErrandOut, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	out := []model.ErrandOut{}
	for _, id := range m.order {
		if e, ok := m.errands[id]; ok { out = append(out, e) }
	}
	return out, nil
}

func (m *Memory) GetErrand(ctx context.Context, id string) (model.ErrandOut, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	e, ok := m.errands[id]
	if !ok { return model.ErrandOut{}, ErrNotFound }
	return e, nil
}

func (m *Memory) DeleteErrand(ctx context.Context, id string) error {
	m.mu.Lock(); defer m.mu.Unlock()
	if _, ok := m.errands[id]; !ok { return ErrNotFound }
	delete(m.errands, id)
	for i, eid := range m.order {
		if eid == id { m.order = append(m.order[:i], m.order[i+1:]...); break }
	}
	return nil
}

func (m *Memory) SavePlan(ctx context.Context, p model.Plan) error {
	m.mu.Lock(); defer m.mu.Unlock()
	if _, ok := m.plans[p.ID]; !ok { m.planIDs = append(m.planIDs, p.ID) }
	m.plans[p.ID] = p
	return nil
}

func (m *Memory) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok { return model.Plan{}, ErrNotFound }
	return p, nil
}

func (m *Memory) ListPlans(ctx context.Context, date string, limit int) ([]model.Plan, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	if limit <= 0 || limit > 500 { limit = 100 }
	out := []model.Plan{}
	for _, id := range m.planIDs {
		p := m.plans[id]
		if date != "" && p.Date != date { continue }
		out = append(out, p)
	}
	// newest first
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit { out = out[:limit] }
	return out, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	id := uuid.New().String()
	sub := model.Subscription{ID: id, URL: req.URL, Events: req.Events, Secret: req.Secret}
	m.subs[id] = sub
	return sub, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	out := []model.Subscription{}
	for _, s := range m.subs {
		for _, ev := range s.Events {
			if ev == eventType || ev == "*" { out = append(out, s); break }
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	out := []model.Subscription{}
	for _, s := range m.subs { out = append(out, s) }
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock(); defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok { return ErrNotFound }
	delete(m.subs, id)
	return nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	id := uuid.New().String()
	d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending", Attempts: 0}, NextAttemptAt: time.Now()}
	m.deliveryMap[id] = d
	m.deliveries = append(m.deliveries, id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.deliveries {
		d := m.deliveryMap[id]
		if d == nil { continue }
		if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
			out = append(out, d.WebhookDelivery)
			if limit > 0 && len(out) >= limit { break }
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock(); defer m.mu.Unlock()
	d := m.deliveryMap[id]
	if d == nil { return nil }
	d.Attempts++
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
		now := time.Now()
		d.DeliveredAt = &now
	} else {
		d.Status = "retry"
		d.LastError = lastError
		if nextAttemptAt != nil { d.NextAttemptAt = *nextAttemptAt } else { d.NextAttemptAt = time.Now().Add(1 * time.Minute) }
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock(); defer m.mu.Unlock()
	d := m.deliveryMap[id]
	if d == nil { return nil }
	d.Attempts++
	d.Status = "failed"
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	return nil
}
