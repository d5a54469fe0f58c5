package platform

import (
	"errors"
	"testing"
	"time"

	"github.com/ignite/adpilot/internal/domain"
)

func TestErrorFromResponseTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		check      func(t *testing.T, err error)
	}{
		{
			name:   "401 is authentication",
			status: 401,
			check: func(t *testing.T, err error) {
				var ae *AuthenticationError
				if !errors.As(err, &ae) {
					t.Fatalf("expected AuthenticationError, got %T", err)
				}
			},
		},
		{
			name:   "403 is authentication",
			status: 403,
			check: func(t *testing.T, err error) {
				var ae *AuthenticationError
				if !errors.As(err, &ae) {
					t.Fatalf("expected AuthenticationError, got %T", err)
				}
			},
		},
		{
			name:       "429 carries retry-after",
			status:     429,
			retryAfter: "17",
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				if !errors.As(err, &rl) {
					t.Fatalf("expected RateLimitError, got %T", err)
				}
				if rl.RetryAfter() != 17*time.Second {
					t.Fatalf("retry-after = %v, want 17s", rl.RetryAfter())
				}
			},
		},
		{
			name:   "429 without header defaults to 60s",
			status: 429,
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				if !errors.As(err, &rl) {
					t.Fatalf("expected RateLimitError, got %T", err)
				}
				if rl.RetryAfter() != time.Minute {
					t.Fatalf("retry-after = %v, want 60s", rl.RetryAfter())
				}
			},
		},
		{
			name:   "503 is transient",
			status: 503,
			check: func(t *testing.T, err error) {
				var tr *TransientError
				if !errors.As(err, &tr) || !tr.Transient() {
					t.Fatalf("expected TransientError, got %T", err)
				}
			},
		},
		{
			name:   "400 is validation",
			status: 400,
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ErrorFromResponse(domain.PlatformGoogleAds, tt.status, tt.retryAfter, []byte("detail"))
			tt.check(t, err)
		})
	}
}
