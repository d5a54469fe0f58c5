// Package report assembles cross-platform performance reports. Rows are
// merged by campaign id, so a campaign running the same tag on several
// platforms appears once with per-platform detail underneath.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/unified"
)

// performanceFetcher is the slice of the unified client the builder uses.
type performanceFetcher interface {
	FetchPerformance(ctx context.Context, req unified.FetchRequest) (*unified.FetchResult, error)
}

// CampaignLine is one campaign's merged row in a report.
type CampaignLine struct {
	CampaignID     string                  `json:"campaign_id"`
	Platforms      []domain.Platform       `json:"platforms"`
	ByPlatform     []domain.MetricSnapshot `json:"by_platform"`
	Impressions    int64                   `json:"impressions"`
	Clicks         int64                   `json:"clicks"`
	Conversions    int64                   `json:"conversions"`
	Cost           float64                 `json:"cost"`
	Revenue        float64                 `json:"revenue"`
	CTR            domain.Rate             `json:"ctr"`
	ConversionRate domain.Rate             `json:"conversion_rate"`
	ROI            domain.Rate             `json:"roi"`
	CPA            domain.Rate             `json:"cpa"`
}

// Report is a generated performance report. Partial reports carry the
// per-platform errors so missing data is never silent.
type Report struct {
	ID          string                     `json:"id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Window      domain.DateRange           `json:"window"`
	Campaigns   []CampaignLine             `json:"campaigns"`
	Combined    unified.Summary            `json:"combined"`
	Partial     bool                       `json:"partial"`
	Errors      map[domain.Platform]string `json:"errors,omitempty"`
}

// Builder generates reports from live platform data.
type Builder struct {
	fetcher performanceFetcher

	now   func() time.Time
	newID func() string
}

// NewBuilder creates a report builder over the unified client.
func NewBuilder(fetcher performanceFetcher) *Builder {
	return &Builder{
		fetcher: fetcher,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.NewString() },
	}
}

// Generate fetches performance and assembles the report. Campaign rows
// are ordered by cost descending so the biggest spenders lead.
func (b *Builder) Generate(ctx context.Context, req unified.FetchRequest) (*Report, error) {
	res, err := b.fetcher.FetchPerformance(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching performance: %w", err)
	}

	byCampaign := make(map[string]*CampaignLine)
	for p, snaps := range res.PerPlatform {
		for _, s := range snaps {
			line, ok := byCampaign[s.CampaignID]
			if !ok {
				line = &CampaignLine{CampaignID: s.CampaignID}
				byCampaign[s.CampaignID] = line
			}
			line.Platforms = append(line.Platforms, p)
			line.ByPlatform = append(line.ByPlatform, s)
			line.Impressions += s.Impressions
			line.Clicks += s.Clicks
			line.Conversions += s.Conversions
			line.Cost += s.Cost
			line.Revenue += s.Revenue
		}
	}

	lines := make([]CampaignLine, 0, len(byCampaign))
	for _, line := range byCampaign {
		sort.Slice(line.Platforms, func(i, j int) bool { return line.Platforms[i] < line.Platforms[j] })
		total := domain.MetricSnapshot{
			Impressions: line.Impressions,
			Clicks:      line.Clicks,
			Conversions: line.Conversions,
			Cost:        line.Cost,
			Revenue:     line.Revenue,
		}
		line.CTR = total.CTR()
		line.ConversionRate = total.ConversionRate()
		line.ROI = total.ROI()
		line.CPA = total.CPA()
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Cost != lines[j].Cost {
			return lines[i].Cost > lines[j].Cost
		}
		return lines[i].CampaignID < lines[j].CampaignID
	})

	return &Report{
		ID:          b.newID(),
		GeneratedAt: b.now(),
		Window:      req.Window,
		Campaigns:   lines,
		Combined:    res.Combined,
		Partial:     res.Partial,
		Errors:      res.Errors,
	}, nil
}
