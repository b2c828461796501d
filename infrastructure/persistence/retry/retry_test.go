package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"orderlifecycle/config"
	"orderlifecycle/domain/order"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func fastConfig() Config {
	c := DefaultConfig
	c.InitialDelay = time.Millisecond
	c.MaxDelay = 2 * time.Millisecond
	return c
}

func TestIsRetryableError(t *testing.T) {
	cfg := DefaultConfig
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"concurrent modification", order.NewConcurrentModificationError(1), true},
		{"wrapped concurrent modification", fmt.Errorf("apply: %w", order.NewConcurrentModificationError(1)), true},
		{"invalid transition", order.NewInvalidTransitionError(1, order.StatusCreated, order.StatusReturned), false},
		{"not found", order.NewOrderNotFoundError(1), false},
		{"mysql deadlock", &mysqlDriver.MySQLError{Number: 1213}, true},
		{"mysql lock timeout", &mysqlDriver.MySQLError{Number: 1205}, true},
		{"mysql duplicate", &mysqlDriver.MySQLError{Number: 1062}, false},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, true},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pg unique", &pgconn.PgError{Code: "23505"}, false},
		{"context canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err, cfg); got != tt.want {
				t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryableError_RespectsToggles(t *testing.T) {
	cfg := DefaultConfig
	cfg.RetryOnConcurrentModification = false
	cfg.RetryOnDeadlock = false
	if IsRetryableError(order.NewConcurrentModificationError(1), cfg) {
		t.Error("concurrent modification retried while disabled")
	}
	if IsRetryableError(&mysqlDriver.MySQLError{Number: 1213}, cfg) {
		t.Error("deadlock retried while disabled")
	}
}

func TestExecuteWithRetry_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := ExecuteWithRetry(context.Background(), fastConfig(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return order.NewConcurrentModificationError(1)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestExecuteWithRetry_StopsOnDomainError(t *testing.T) {
	attempts := 0
	want := order.NewOrderNotFoundError(5)
	err := ExecuteWithRetry(context.Background(), fastConfig(), func(ctx context.Context) error {
		attempts++
		return want
	})
	if err != want || attempts != 1 {
		t.Errorf("err = %v after %d attempts", err, attempts)
	}
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 4
	attempts := 0
	err := ExecuteWithRetry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return order.NewConcurrentModificationError(1)
	})
	if !errors.Is(err, order.ErrConcurrentModification) {
		t.Fatalf("err = %v", err)
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
}

func TestExecuteWithRetry_Disabled(t *testing.T) {
	cfg := fastConfig()
	cfg.Enabled = false
	attempts := 0
	_ = ExecuteWithRetry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return order.NewConcurrentModificationError(1)
	})
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ExecuteWithRetry(ctx, fastConfig(), func(ctx context.Context) error {
		t.Fatal("fn must not run on a cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	cfg := Config{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, BackoffFactor: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := ExponentialBackoffWithJitter(tt.attempt, cfg); got != tt.want {
			t.Errorf("attempt %d: got %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestFromAppConfigDefaults(t *testing.T) {
	got := FromAppConfig(&config.Config{Database: config.DatabaseConfig{Retry: config.RetryConfig{Enabled: true}}})
	if got.MaxAttempts != DefaultConfig.MaxAttempts || got.BackoffFactor != DefaultConfig.BackoffFactor {
		t.Errorf("defaults not applied: %+v", got)
	}
}
