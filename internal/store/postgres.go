package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"daynav/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// MigrateDir applies every .sql file in dir in lexical order. Files are plain
// DDL with IF NOT EXISTS guards, so reapplying is safe.
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil { return err }
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") { names = append(names, e.Name()) }
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil { return err }
		if _, err := p.db.Exec(string(b)); err != nil { return err }
	}
	return nil
}

func (p *Postgres) GetSettings(ctx context.Context) (model.Settings, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE id=1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) { return model.Settings{}, ErrNotFound }
	if err != nil { return model.Settings{}, err }
	var s model.Settings
	if err := json.Unmarshal(data, &s); err != nil { return model.Settings{}, err }
	return s, nil
}

func (p *Postgres) SaveSettings(ctx context.Context, s model.Settings) (model.Settings, error) {
	data, err := json.Marshal(s)
	if err != nil { return model.Settings{}, err }
	_, err = p.db.ExecContext(ctx, `INSERT INTO settings (id, data) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET data=$1, updated_at=now()`, data)
	if err != nil { return model.Settings{}, err }
	return s, nil
}

func (p *Postgres) CreateErrand(ctx context.Context, in model.ErrandIn) (model.ErrandOut, error) {
	out := model.ErrandOut{
		ID:             uuid.New().String(),
		Title:          in.Title,
		Address:        in.Address,
		ServiceMinutes: in.ServiceMinutes,
		Window:         in.Window,
		Notes:          in.Notes,
		CreatedAt:      time.Now().UTC(),
	}
	if in.Location != nil { out.Location = *in.Location }
	data, err := json.Marshal(out)
	if err != nil { return model.ErrandOut{}, err }
	_, err = p.db.ExecContext(ctx, `INSERT INTO errands (id, data, created_at) VALUES ($1,$2,$3)`, out.ID, data, out.CreatedAt)
	if err != nil { return model.ErrandOut{}, err }
	return out, nil
}

func (p *Postgres) ListErrands(ctx context.Context) ([]model.ErrandOut, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT data FROM errands ORDER BY created_at, id`)
	if err != nil { return nil, err }
	defer rows.Close()
	out := []model.ErrandOut{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil { return nil, err }
		var e model.ErrandOut
		if err := json.Unmarshal(data, &e); err != nil { return nil, err }
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) GetErrand(ctx context.Context, id string) (model.ErrandOut, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT data FROM errands WHERE id=$1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) { return model.ErrandOut{}, ErrNotFound }
	if err != nil { return model.ErrandOut{}, err }
	var e model.ErrandOut
	if err := json.Unmarshal(data, &e); err != nil { return model.ErrandOut{}, err }
	return e, nil
}

func (p *Postgres) DeleteErrand(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM errands WHERE id=$1`, id)
	if err != nil { return err }
	if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
	return nil
}

func (p *Postgres) SavePlan(ctx context.Context, plan model.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil { return err }
	_, err = p.db.ExecContext(ctx, `INSERT INTO plans (id, plan_date, data, created_at) VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET data=$3`, plan.ID, plan.Date, data, plan.CreatedAt)
	return err
}

func (p *Postgres) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT data FROM plans WHERE id=$1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) { return model.Plan{}, ErrNotFound }
	if err != nil { return model.Plan{}, err }
	var plan model.Plan
	if err := json.Unmarshal(data, &plan); err != nil { return model.Plan{}, err }
	return plan, nil
}

func (p *Postgres) ListPlans(ctx context.Context, date string, limit int) ([]model.Plan, error) {
	if limit <= 0 || limit > 500 { limit = 100 }
	var rows *sql.Rows
	var err error
	if date != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT data FROM plans WHERE plan_date=$1 ORDER BY created_at DESC LIMIT $2`, date, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT data FROM plans ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil { return nil, err }
	defer rows.Close()
	out := []model.Plan{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil { return nil, err }
		var plan model.Plan
		if err := json.Unmarshal(data, &plan); err != nil { return nil, err }
		out = append(out, plan)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	id := uuid.New().String()
	ev, _ := json.Marshal(req.Events)
	_, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, url, events, secret) VALUES ($1,$2,$3,$4)`, id, req.URL, ev, req.Secret)
	if err != nil { return model.Subscription{}, err }
	return model.Subscription{ID: id, URL: req.URL, Events: req.Events, Secret: req.Secret}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions WHERE events @> $1::jsonb OR events @> '["*"]'::jsonb ORDER BY id`, `["`+eventType+`"]`)
	if err != nil { return nil, err }
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &events); err != nil { return nil, err }
		_ = json.Unmarshal(events, &s.Events)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions ORDER BY id`)
	if err != nil { return nil, err }
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var events []byte
		if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &events); err != nil { return nil, err }
		_ = json.Unmarshal(events, &s.Events)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil { return err }
	if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.New().String()
	_, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at)
		VALUES ($1,$2,$3,$4,$5,$6,'pending',0,now())`, id, nullIfEmpty(subscriptionID), eventType, url, nullIfEmpty(secret), payload)
	if err != nil { return "", err }
	return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, COALESCE(subscription_id::text,''), event_type, url, COALESCE(secret,''), payload, status, attempts
		FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now() ORDER BY next_attempt_at ASC LIMIT $1`, limit)
	if err != nil { return nil, err }
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil { return nil, err }
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if !success {
		if nextAttemptAt == nil { t := time.Now().Add(1 * time.Minute); nextAttemptAt = &t }
		_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='retry', last_error=$2, next_attempt_at=$3, response_code=$4, latency_ms=$5, updated_at=now() WHERE id=$1`,
			id, nullIfEmpty(lastError), *nextAttemptAt, responseCode, latencyMs)
		return err
	}
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='delivered', delivered_at=now(), response_code=$2, latency_ms=$3, updated_at=now() WHERE id=$1`, id, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='failed', last_error=$2, response_code=$3, latency_ms=$4, updated_at=now() WHERE id=$1`,
		id, nullIfEmpty(lastError), responseCode, latencyMs)
	return err
}

func nullIfEmpty(s string) any { if s == "" { return nil }; return s }
