// Package platform defines the uniform contract every advertising or
// analytics platform adapter implements, plus the shared error taxonomy
// the retry layer classifies against.
//
// Adapters own the full boundary with their platform: authentication and
// token refresh, rate limiting, retries, and translation from the
// platform's native field names and units into domain.MetricSnapshot.
// Nothing above an adapter ever sees a raw platform payload.
package platform

import (
	"context"
	"encoding/json"

	"github.com/ignite/adpilot/internal/domain"
)

// Adapter is the uniform fetch/mutate contract for one platform. Every
// method passes through the adapter's rate limiter and retry policy.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Platform returns the platform this adapter serves.
	Platform() domain.Platform

	// Owns reports whether the campaign id belongs to this platform.
	Owns(ctx context.Context, campaignID string) bool

	// FetchPerformance returns normalized snapshots for the requested
	// campaigns over the window. Unknown ids are skipped, not errors.
	FetchPerformance(ctx context.Context, campaignIDs []string, window domain.DateRange, metrics domain.MetricSet) ([]domain.MetricSnapshot, error)

	// UpdateBudget sets the campaign's budget to newBudget (absolute, not
	// incremental, which is what makes the call safe to retry).
	UpdateBudget(ctx context.Context, campaignID string, newBudget float64) (*domain.Campaign, error)

	// Pause stops delivery for the campaign.
	Pause(ctx context.Context, campaignID string) (*domain.Campaign, error)

	// Resume restarts delivery for a paused campaign.
	Resume(ctx context.Context, campaignID string) (*domain.Campaign, error)

	// AudienceInsights returns the platform's audience payload verbatim.
	// The shape is platform-specific by design; callers treat it as opaque.
	AudienceInsights(ctx context.Context, campaignID string) (json.RawMessage, error)
}
