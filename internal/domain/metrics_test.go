package domain

import (
	"encoding/json"
	"testing"
)

func TestDerivedRates(t *testing.T) {
	m := MetricSnapshot{Impressions: 10000, Clicks: 250, Conversions: 25, Cost: 1000, Revenue: 3500}

	if ctr := m.CTR(); !ctr.Defined || ctr.Value != 2.5 {
		t.Fatalf("ctr = %+v, want 2.5", ctr)
	}
	if cr := m.ConversionRate(); !cr.Defined || cr.Value != 10 {
		t.Fatalf("conversion rate = %+v, want 10", cr)
	}
	if roi := m.ROI(); !roi.Defined || roi.Value != 250 {
		t.Fatalf("roi = %+v, want 250", roi)
	}
}

func TestDerivedRatesUndefined(t *testing.T) {
	var m MetricSnapshot

	if m.CTR().Defined {
		t.Fatal("ctr should be undefined with zero impressions")
	}
	if m.ConversionRate().Defined {
		t.Fatal("conversion rate should be undefined with zero clicks")
	}
	if m.ROI().Defined {
		t.Fatal("roi should be undefined with zero cost")
	}
	if m.CPA().Defined {
		t.Fatal("cpa should be undefined with zero conversions")
	}
}

func TestRateJSON(t *testing.T) {
	out, err := json.Marshal(map[string]Rate{
		"defined":   DefinedRate(12.5),
		"undefined": UndefinedRate,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]Rate
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got["defined"].Defined || got["defined"].Value != 12.5 {
		t.Fatalf("defined rate round-trip: %+v", got["defined"])
	}
	if got["undefined"].Defined {
		t.Fatalf("undefined rate should stay undefined, got %+v", got["undefined"])
	}
}

func TestSnapshotAdd(t *testing.T) {
	a := MetricSnapshot{Impressions: 100, Clicks: 10, Conversions: 1, Cost: 50, Revenue: 80}
	b := MetricSnapshot{Impressions: 300, Clicks: 20, Conversions: 4, Cost: 150, Revenue: 400}
	a.Add(b)

	if a.Impressions != 400 || a.Clicks != 30 || a.Conversions != 5 {
		t.Fatalf("counters after add: %+v", a)
	}
	if a.Cost != 200 || a.Revenue != 480 {
		t.Fatalf("amounts after add: %+v", a)
	}
}

func TestMetricSetContains(t *testing.T) {
	var empty MetricSet
	if !empty.Contains("clicks") {
		t.Fatal("empty set should contain everything")
	}
	s := MetricSet{"clicks", "cost"}
	if !s.Contains("cost") || s.Contains("revenue") {
		t.Fatalf("membership wrong for %v", s)
	}
}
