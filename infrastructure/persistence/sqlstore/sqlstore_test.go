package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"orderlifecycle/config"
	"orderlifecycle/infrastructure/persistence/sqlstore/po"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mysql duplicate", &mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"wrapped mysql duplicate", fmt.Errorf("insert order: %w", &mysqlDriver.MySQLError{Number: 1062}), true},
		{"mysql other", &mysqlDriver.MySQLError{Number: 1213}, false},
		{"pg unique", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "40001"}, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"plain", errors.New("duplicate"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := FromAppConfig(config.DatabaseConfig{
		Type: "postgres", Host: "db", Port: "5432", Username: "u", Password: "p", Database: "orders",
	})
	dsn := cfg.DSN()
	for _, want := range []string{"host=db", "port=5432", "dbname=orders", "sslmode=disable", "TimeZone=UTC"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("postgres dsn %q missing %q", dsn, want)
		}
	}

	cfg.Driver = DriverMySQL
	cfg.Port = "3306"
	if dsn := cfg.DSN(); !strings.HasPrefix(dsn, "u:p@tcp(db:3306)/orders?") || !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("mysql dsn = %q", dsn)
	}
	// natural keys compare exactly, as on postgres
	if dsn := cfg.DSN(); !strings.Contains(dsn, "collation=utf8mb4_bin") {
		t.Errorf("mysql dsn %q must use a binary collation", dsn)
	}

	cfg.Driver = "memory"
	if _, err := cfg.Connect(); err == nil {
		t.Error("Connect should reject a non sql driver")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{MaxOpenConns: 4, MaxIdleConns: 8}
	cfg.applyDefaults()
	if cfg.MaxIdleConns != 4 {
		t.Errorf("idle conns = %d, capped to open conns", cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != DefaultConnMaxLifetime {
		t.Errorf("lifetime = %v", cfg.ConnMaxLifetime)
	}
}

func dryRunMySQL(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "u:p@tcp(127.0.0.1:3306)/orders?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func dryRunPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 port=5432 user=u password=p dbname=orders sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestUpsertCounterSQL(t *testing.T) {
	tests := []struct {
		name  string
		db    func(*testing.T) *gorm.DB
		wants []string
	}{
		{"mysql", dryRunMySQL, []string{"INSERT INTO `sequence_counters`", "ON DUPLICATE KEY UPDATE", "sequence_counters.current_value + 1"}},
		{"postgres", dryRunPostgres, []string{`INSERT INTO "sequence_counters"`, `ON CONFLICT ("name") DO UPDATE`, "sequence_counters.current_value + 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := tt.db(t).ToSQL(func(tx *gorm.DB) *gorm.DB {
				return upsertCounter(tx, "orderId")
			})
			for _, want := range tt.wants {
				if !strings.Contains(sql, want) {
					t.Errorf("sql %q missing %q", sql, want)
				}
			}
		})
	}
}

// fakeOutbox records worker calls in memory.
type fakeOutbox struct {
	pending    []*po.OutboxEventPO
	claimErr   map[string]error
	published  []string
	failed     []string
	maxRetries int
}

func (f *fakeOutbox) GetPendingEvents(ctx context.Context, limit int) ([]*po.OutboxEventPO, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutbox) MarkEventProcessing(ctx context.Context, eventID string) error {
	return f.claimErr[eventID]
}

func (f *fakeOutbox) MarkEventPublished(ctx context.Context, eventID string) error {
	f.published = append(f.published, eventID)
	return nil
}

func (f *fakeOutbox) MarkEventFailed(ctx context.Context, eventID string, maxRetries int) error {
	f.failed = append(f.failed, eventID)
	f.maxRetries = maxRetries
	return nil
}

type fakePublisher struct {
	failFor map[string]bool
	keys    []string
}

func (p *fakePublisher) Publish(ctx context.Context, aggregateID, eventType, payload string) error {
	if p.failFor[aggregateID] {
		return errors.New("broker unavailable")
	}
	p.keys = append(p.keys, aggregateID)
	return nil
}

func TestOutboxWorkerProcessBatch(t *testing.T) {
	store := &fakeOutbox{
		pending: []*po.OutboxEventPO{
			{ID: "e1", AggregateID: "1", EventType: "order.created", Payload: "{}"},
			{ID: "e2", AggregateID: "2", EventType: "order.created", Payload: "{}"},
			{ID: "e3", AggregateID: "3", EventType: "order.status_changed", Payload: "{}"},
			{ID: "e4", AggregateID: "4", EventType: "order.created", Payload: "{}"},
		},
		claimErr: map[string]error{"e3": errors.New("already claimed")},
	}
	pub := &fakePublisher{failFor: map[string]bool{"2": true}}

	w, err := newOutboxWorker(store, pub, time.Second, 10, 3)
	if err != nil {
		t.Fatal(err)
	}
	n, err := w.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if n != 2 {
		t.Errorf("published = %d, want 2", n)
	}
	if strings.Join(store.published, ",") != "e1,e4" {
		t.Errorf("marked published = %v", store.published)
	}
	if len(store.failed) != 1 || store.failed[0] != "e2" || store.maxRetries != 3 {
		t.Errorf("marked failed = %v (max %d)", store.failed, store.maxRetries)
	}
	if strings.Join(pub.keys, ",") != "1,4" {
		t.Errorf("partition keys = %v", pub.keys)
	}
}

func TestNewOutboxWorkerValidation(t *testing.T) {
	store := &fakeOutbox{}
	pub := &fakePublisher{}
	if _, err := NewOutboxWorker(nil, pub, time.Second, 1, 1); err == nil {
		t.Error("nil repository accepted")
	}
	if _, err := newOutboxWorker(store, nil, time.Second, 1, 1); err == nil {
		t.Error("nil publisher accepted")
	}
	if _, err := newOutboxWorker(store, pub, 0, 1, 1); err == nil {
		t.Error("zero poll interval accepted")
	}
	if _, err := newOutboxWorker(store, pub, time.Second, 0, 1); err == nil {
		t.Error("zero batch size accepted")
	}
	if _, err := newOutboxWorker(store, pub, time.Second, 1, 0); err == nil {
		t.Error("zero max retries accepted")
	}
}

func TestModelsCoverSchema(t *testing.T) {
	tables := map[string]bool{}
	for _, m := range Models() {
		if tn, ok := m.(interface{ TableName() string }); ok {
			tables[tn.TableName()] = true
		}
	}
	for _, want := range []string{"orders", "order_products", "order_events", "sequence_counters", "outbox_events"} {
		if !tables[want] {
			t.Errorf("table %s not migrated", want)
		}
	}
}
