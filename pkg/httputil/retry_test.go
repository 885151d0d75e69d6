package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

var errReset = errors.New("connection reset")

func TestTransient(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
	err := Transient(errReset)
	if !IsTransient(err) {
		t.Error("IsTransient should see the mark")
	}
	if !errors.Is(err, errReset) {
		t.Error("marked error should unwrap to the cause")
	}
	if err.Error() != errReset.Error() {
		t.Errorf("Error() = %q, want %q", err, errReset)
	}
	if IsTransient(errReset) {
		t.Error("unmarked error is not transient")
	}
}

func TestBackoffDo(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		transient bool
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, true, 1, false},
		{"recovers", 2, true, 3, false},
		{"exhausted", 5, true, 3, true},
		{"permanent", 5, false, 1, true},
	}
	b := Backoff{Attempts: 3, Delay: time.Millisecond}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts []int
			err := b.Do(context.Background(), func(attempt int) error {
				attempts = append(attempts, attempt)
				if len(attempts) <= tt.failures {
					if tt.transient {
						return Transient(errReset)
					}
					return errReset
				}
				return nil
			})
			if len(attempts) != tt.wantCalls {
				t.Errorf("calls = %d, want %d", len(attempts), tt.wantCalls)
			}
			for i, a := range attempts {
				if a != i {
					t.Errorf("attempt %d numbered %d", i, a)
				}
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffAlwaysTriesOnce(t *testing.T) {
	calls := 0
	_ = Backoff{}.Do(context.Background(), func(int) error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoffCancelledWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Backoff{Attempts: 3, Delay: time.Hour}.Do(ctx, func(int) error {
		return Transient(errReset)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBackoffPause(t *testing.T) {
	b := Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 4 * time.Second}
	tests := []struct {
		name string
		err  error
		step time.Duration
		want time.Duration
	}{
		{"plain step", Transient(errReset), time.Second, time.Second},
		{"server hint", &TransientError{Err: errReset, After: 3 * time.Second}, time.Second, 3 * time.Second},
		{"hint capped", &TransientError{Err: errReset, After: time.Minute}, time.Second, 4 * time.Second},
		{"step capped", Transient(errReset), 10 * time.Second, 4 * time.Second},
	}
	for _, tt := range tests {
		if got := b.pause(tt.err, tt.step); got != tt.want {
			t.Errorf("%s: pause = %v, want %v", tt.name, got, tt.want)
		}
	}
	if got := b.next(3 * time.Second); got != 4*time.Second {
		t.Errorf("next(3s) = %v, want capped 4s", got)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"2", 2 * time.Second},
		{"-1", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.header != "" {
			h.Set("Retry-After", tt.header)
		}
		if got := retryAfter(h); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
