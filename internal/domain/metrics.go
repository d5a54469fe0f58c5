package domain

import (
	"encoding/json"
)

// Rate is a derived ratio metric. A rate whose denominator was zero is
// undefined; it marshals as JSON null, never as 0 or NaN.
type Rate struct {
	Value   float64
	Defined bool
}

// DefinedRate returns a defined rate with the given value.
func DefinedRate(v float64) Rate { return Rate{Value: v, Defined: true} }

// UndefinedRate is the explicit marker for a zero-denominator rate.
var UndefinedRate = Rate{}

// MarshalJSON encodes undefined rates as null.
func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON decodes null as undefined.
func (r *Rate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = UndefinedRate
		return nil
	}
	r.Defined = true
	return json.Unmarshal(data, &r.Value)
}

// MetricSnapshot holds normalized performance counters for one campaign
// over one reporting window. Adapters translate platform-native schemas
// (micros, cents, platform date formats) into this shape; nothing
// downstream ever sees raw platform fields.
//
// Derived rates (CTR, conversion rate, ROI) are computed on demand and are
// never stored as a source of truth.
type MetricSnapshot struct {
	CampaignID  string    `json:"campaign_id" db:"campaign_id"`
	Platform    Platform  `json:"platform" db:"platform"`
	Window      DateRange `json:"window"`
	Impressions int64     `json:"impressions" db:"impressions"`
	Clicks      int64     `json:"clicks" db:"clicks"`
	Conversions int64     `json:"conversions" db:"conversions"`
	Cost        float64   `json:"cost" db:"cost"`       // currency units
	Revenue     float64   `json:"revenue" db:"revenue"` // currency units
}

// CTR returns click-through rate as a percentage of impressions.
func (m MetricSnapshot) CTR() Rate {
	if m.Impressions == 0 {
		return UndefinedRate
	}
	return DefinedRate(float64(m.Clicks) / float64(m.Impressions) * 100)
}

// ConversionRate returns conversions as a percentage of clicks.
func (m MetricSnapshot) ConversionRate() Rate {
	if m.Clicks == 0 {
		return UndefinedRate
	}
	return DefinedRate(float64(m.Conversions) / float64(m.Clicks) * 100)
}

// ROI returns (revenue - cost) / cost as a percentage.
func (m MetricSnapshot) ROI() Rate {
	if m.Cost == 0 {
		return UndefinedRate
	}
	return DefinedRate((m.Revenue - m.Cost) / m.Cost * 100)
}

// CPA returns cost per conversion.
func (m MetricSnapshot) CPA() Rate {
	if m.Conversions == 0 {
		return UndefinedRate
	}
	return DefinedRate(m.Cost / float64(m.Conversions))
}

// Add accumulates another snapshot's additive counters into m.
// Rates are intentionally not merged here; combine them weighted by their
// natural denominator (see unified.CombinedSummary).
func (m *MetricSnapshot) Add(o MetricSnapshot) {
	m.Impressions += o.Impressions
	m.Clicks += o.Clicks
	m.Conversions += o.Conversions
	m.Cost += o.Cost
	m.Revenue += o.Revenue
}

// MetricSet names the counters a performance fetch should return.
// An empty set means all counters.
type MetricSet []string

// Contains reports whether the set names the given metric, or is empty
// (empty set = everything).
func (s MetricSet) Contains(name string) bool {
	if len(s) == 0 {
		return true
	}
	for _, m := range s {
		if m == name {
			return true
		}
	}
	return false
}
