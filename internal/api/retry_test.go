package api

import (
	"context"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.BaseDelay != time.Second {
		t.Errorf("BaseDelay = %v, want 1s", cfg.BaseDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", cfg.MaxDelay)
	}
	if cfg.RetryableOn == nil {
		t.Fatal("RetryableOn is nil")
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()

	tests := []struct {
		name       string
		attempt    int
		statusCode int
		expected   bool
	}{
		{"first attempt, retryable", 0, 503, true},
		{"max attempts reached", 3, 503, false},
		{"non-retryable 400", 0, 400, false},
		{"non-retryable 401", 0, 401, false},
		{"retryable 429", 0, 429, true},
		{"retryable 500", 0, 500, true},
		{"retryable 408", 0, 408, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.ShouldRetry(tt.attempt, tt.statusCode); got != tt.expected {
				t.Errorf("ShouldRetry(%d, %d) = %v, want %v", tt.attempt, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestRetryConfig_Delay_Grows(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.Jitter = 0

	d0 := cfg.Delay(0)
	d1 := cfg.Delay(1)
	d2 := cfg.Delay(2)

	if d0 != time.Second {
		t.Errorf("Delay(0) = %v, want 1s", d0)
	}
	if d1 != 2*time.Second {
		t.Errorf("Delay(1) = %v, want 2s", d1)
	}
	if d2 != 4*time.Second {
		t.Errorf("Delay(2) = %v, want 4s", d2)
	}
}

func TestRetryConfig_Delay_Capped(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.Jitter = 0

	if d := cfg.Delay(20); d != cfg.MaxDelay {
		t.Errorf("Delay(20) = %v, want %v", d, cfg.MaxDelay)
	}
}

func TestRetryConfig_Wait_ContextCancelled(t *testing.T) {
	cfg := DefaultRetryConfig()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cfg.Wait(ctx, 0); err != context.Canceled {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}
