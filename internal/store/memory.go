package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"daynav/internal/model"
)

// Memory is the in-memory store used when no DATABASE_URL is configured.
type Memory struct {
	mu         sync.Mutex
	trips      map[string]model.Trip
	tripOrder  []string
	tripMeta   map[string]string // id -> createdAt
	plans      map[string]model.DayPlan
	planOrder  []string
	subs       map[string]model.Subscription
	subOrder   []string
	deliveries map[string]*memDelivery
	delOrder   []string
}

func NewMemory() *Memory {
	return &Memory{
		trips:      map[string]model.Trip{},
		tripMeta:   map[string]string{},
		plans:      map[string]model.DayPlan{},
		subs:       map[string]model.Subscription{},
		deliveries: map[string]*memDelivery{},
	}
}

// memDelivery augments WebhookDelivery with scheduling and outcome state.
type memDelivery struct {
	WebhookDelivery
	Status        string // pending, delivered, failed
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	CreatedAt     time.Time
}

func (m *Memory) CreateTrip(ctx context.Context, trip model.Trip) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.trips[id] = trip
	m.tripOrder = append(m.tripOrder, id)
	m.tripMeta[id] = time.Now().UTC().Format(time.RFC3339)
	return id, nil
}

func (m *Memory) GetTrip(ctx context.Context, id string) (model.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return model.Trip{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) ListTrips(ctx context.Context, cursor string, limit int) ([]model.TripSummary, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	start := cursorIndex(m.tripOrder, cursor)
	out := make([]model.TripSummary, 0, limit)
	var next string
	for i := start; i < len(m.tripOrder) && len(out) < limit; i++ {
		id := m.tripOrder[i]
		t := m.trips[id]
		out = append(out, model.TripSummary{
			ID:        id,
			RunNote:   t.Config.RunNote,
			Days:      len(t.Days),
			Stores:    len(t.Stores),
			CreatedAt: m.tripMeta[id],
		})
		next = id
	}
	if start+len(out) >= len(m.tripOrder) {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) SavePlan(ctx context.Context, plan model.DayPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[plan.ID]; !ok {
		m.planOrder = append(m.planOrder, plan.ID)
	}
	m.plans[plan.ID] = plan
	return nil
}

func (m *Memory) GetPlan(ctx context.Context, id string) (model.DayPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return model.DayPlan{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListPlans(ctx context.Context, tripID, dayID, cursor string, limit int) ([]model.DayPlan, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	start := cursorIndex(m.planOrder, cursor)
	out := make([]model.DayPlan, 0, limit)
	var next string
	i := start
	for ; i < len(m.planOrder) && len(out) < limit; i++ {
		p := m.plans[m.planOrder[i]]
		if tripID != "" && p.TripID != tripID {
			continue
		}
		if dayID != "" && p.DayID != dayID {
			continue
		}
		out = append(out, p)
		next = p.ID
	}
	if i >= len(m.planOrder) {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := model.Subscription{
		ID:        uuid.New().String(),
		URL:       req.URL,
		Events:    append([]string(nil), req.Events...),
		Secret:    req.Secret,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	m.subs[sub.ID] = sub
	m.subOrder = append(m.subOrder, sub.ID)
	return sub, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, id := range m.subOrder {
		sub := m.subs[id]
		for _, e := range sub.Events {
			if e == eventType || e == "*" {
				out = append(out, sub)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	start := cursorIndex(m.subOrder, cursor)
	out := make([]model.Subscription, 0, limit)
	var next string
	for i := start; i < len(m.subOrder) && len(out) < limit; i++ {
		out = append(out, m.subs[m.subOrder[i]])
		next = m.subOrder[i]
	}
	if start+len(out) >= len(m.subOrder) {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return ErrNotFound
	}
	delete(m.subs, id)
	for i, sid := range m.subOrder {
		if sid == id {
			m.subOrder = append(m.subOrder[:i], m.subOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{
			ID:             id,
			SubscriptionID: subscriptionID,
			EventType:      eventType,
			URL:            url,
			Secret:         secret,
			Payload:        payload,
		},
		Status:        "pending",
		NextAttemptAt: time.Now(),
		CreatedAt:     time.Now(),
	}
	m.delOrder = append(m.delOrder, id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	now := time.Now()
	var out []WebhookDelivery
	for _, id := range m.delOrder {
		d := m.deliveries[id]
		if d.Status != "pending" || d.NextAttemptAt.After(now) {
			continue
		}
		out = append(out, d.WebhookDelivery)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = "delivered"
	} else if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.Status = "failed"
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, status, cursor string, limit int) ([]map[string]any, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	start := cursorIndex(m.delOrder, cursor)
	var out []map[string]any
	var next string
	i := start
	for ; i < len(m.delOrder) && len(out) < limit; i++ {
		d := m.deliveries[m.delOrder[i]]
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, map[string]any{
			"id":           d.ID,
			"eventType":    d.EventType,
			"url":          d.URL,
			"status":       d.Status,
			"attempts":     d.Attempts,
			"lastError":    d.LastError,
			"responseCode": d.ResponseCode,
			"latencyMs":    d.LatencyMs,
			"createdAt":    d.CreatedAt.UTC().Format(time.RFC3339),
		})
		next = d.ID
	}
	if i >= len(m.delOrder) {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func cursorIndex(ids []string, cursor string) int {
	if cursor == "" {
		return 0
	}
	for i, id := range ids {
		if id == cursor {
			return i + 1
		}
	}
	return 0
}
