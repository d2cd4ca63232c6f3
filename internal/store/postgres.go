package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"daynav/internal/model"
)

// Postgres persists trips, plans, and webhook state. Trip and plan documents
// are stored as JSONB; queue state lives in columns so the worker can poll
// with plain predicates.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the schema if missing. Statements are idempotent so it is
// safe to run at every startup.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trips (
			id UUID PRIMARY KEY,
			doc JSONB NOT NULL,
			run_note TEXT,
			days INT NOT NULL,
			stores INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS plans (
			id UUID PRIMARY KEY,
			trip_id UUID NOT NULL,
			day_id TEXT NOT NULL,
			doc JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS plans_trip_day_idx ON plans (trip_id, day_id)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY,
			url TEXT NOT NULL,
			events TEXT[] NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id UUID PRIMARY KEY,
			subscription_id UUID NOT NULL,
			event_type TEXT NOT NULL,
			url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			payload BYTEA NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_error TEXT NOT NULL DEFAULT '',
			response_code INT NOT NULL DEFAULT 0,
			latency_ms INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS webhook_deliveries_due_idx ON webhook_deliveries (status, next_attempt_at)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (p *Postgres) CreateTrip(ctx context.Context, trip model.Trip) (string, error) {
	doc, err := json.Marshal(trip)
	if err != nil {
		return "", err
	}
	id := uuid.New()
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO trips (id, doc, run_note, days, stores) VALUES ($1,$2,$3,$4,$5)`,
		id, doc, trip.Config.RunNote, len(trip.Days), len(trip.Stores))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (p *Postgres) GetTrip(ctx context.Context, id string) (model.Trip, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM trips WHERE id=$1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Trip{}, ErrNotFound
	}
	if err != nil {
		return model.Trip{}, err
	}
	var trip model.Trip
	if err := json.Unmarshal(doc, &trip); err != nil {
		return model.Trip{}, err
	}
	return trip, nil
}

func (p *Postgres) ListTrips(ctx context.Context, cursor string, limit int) ([]model.TripSummary, string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, coalesce(run_note,''), days, stores, created_at
		 FROM trips WHERE ($1 = '' OR id::text > $1)
		 ORDER BY id LIMIT $2`, cursor, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var out []model.TripSummary
	for rows.Next() {
		var s model.TripSummary
		var created time.Time
		if err := rows.Scan(&s.ID, &s.RunNote, &s.Days, &s.Stores, &created); err != nil {
			return nil, "", err
		}
		s.CreatedAt = created.UTC().Format(time.RFC3339)
		out = append(out, s)
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, rows.Err()
}

func (p *Postgres) SavePlan(ctx context.Context, plan model.DayPlan) error {
	doc, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO plans (id, trip_id, day_id, doc) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		plan.ID, plan.TripID, plan.DayID, doc)
	return err
}

func (p *Postgres) GetPlan(ctx context.Context, id string) (model.DayPlan, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM plans WHERE id=$1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DayPlan{}, ErrNotFound
	}
	if err != nil {
		return model.DayPlan{}, err
	}
	var plan model.DayPlan
	if err := json.Unmarshal(doc, &plan); err != nil {
		return model.DayPlan{}, err
	}
	return plan, nil
}

func (p *Postgres) ListPlans(ctx context.Context, tripID, dayID, cursor string, limit int) ([]model.DayPlan, string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT doc FROM plans
		 WHERE ($1 = '' OR trip_id::text = $1)
		   AND ($2 = '' OR day_id = $2)
		   AND ($3 = '' OR id::text > $3)
		 ORDER BY id LIMIT $4`, tripID, dayID, cursor, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var out []model.DayPlan
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, "", err
		}
		var plan model.DayPlan
		if err := json.Unmarshal(doc, &plan); err != nil {
			return nil, "", err
		}
		out = append(out, plan)
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	sub := model.Subscription{
		ID:        uuid.New().String(),
		URL:       req.URL,
		Events:    append([]string(nil), req.Events...),
		Secret:    req.Secret,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	events, err := json.Marshal(sub.Events)
	if err != nil {
		return model.Subscription{}, err
	}
	// events travel as a JSON string and unpack to text[] server-side; the
	// stdlib driver has no native []string binding.
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, url, events, secret)
		 VALUES ($1,$2,(SELECT array_agg(e) FROM jsonb_array_elements_text($3::jsonb) e),$4)`,
		sub.ID, sub.URL, string(events), sub.Secret)
	if err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, url, to_jsonb(events), secret FROM subscriptions
		 WHERE $1 = ANY(events) OR '*' = ANY(events)`, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (p *Postgres) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.Subscription, string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, url, to_jsonb(events), secret FROM subscriptions
		 WHERE ($1 = '' OR id::text > $1) ORDER BY id LIMIT $2`, cursor, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out, err := scanSubscriptions(rows)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	var out []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		var events []byte
		if err := rows.Scan(&sub.ID, &sub.URL, &events, &sub.Secret); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(events, &sub.Events); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		id, subscriptionID, eventType, url, secret, payload)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, subscription_id::text, event_type, url, secret, payload, attempts
		 FROM webhook_deliveries
		 WHERE status = 'pending' AND next_attempt_at <= now()
		 ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WebhookDelivery
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	status := "pending"
	if success {
		status = "delivered"
	}
	next := time.Now()
	if nextAttemptAt != nil {
		next = *nextAttemptAt
	}
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries
		 SET status=$2, attempts=attempts+1, next_attempt_at=$3, last_error=$4, response_code=$5, latency_ms=$6
		 WHERE id=$1`,
		id, status, next, lastError, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries
		 SET status='failed', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4
		 WHERE id=$1`,
		id, lastError, responseCode, latencyMs)
	return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, status, cursor string, limit int) ([]map[string]any, string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, event_type, url, status, attempts, last_error, response_code, latency_ms, created_at
		 FROM webhook_deliveries
		 WHERE ($1 = '' OR status = $1) AND ($2 = '' OR id::text > $2)
		 ORDER BY id LIMIT $3`, status, cursor, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var out []map[string]any
	var lastID string
	for rows.Next() {
		var id, eventType, url, st, lastErr string
		var attempts, code, latency int
		var created time.Time
		if err := rows.Scan(&id, &eventType, &url, &st, &attempts, &lastErr, &code, &latency, &created); err != nil {
			return nil, "", err
		}
		out = append(out, map[string]any{
			"id":           id,
			"eventType":    eventType,
			"url":          url,
			"status":       st,
			"attempts":     attempts,
			"lastError":    lastErr,
			"responseCode": code,
			"latencyMs":    latency,
			"createdAt":    created.UTC().Format(time.RFC3339),
		})
		lastID = id
	}
	next := ""
	if len(out) == limit {
		next = lastID
	}
	return out, next, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
