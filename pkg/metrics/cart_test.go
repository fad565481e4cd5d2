package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)

	metrics.IncMutation("add_item", OutcomeApplied)
	metrics.IncMutation("add_item", OutcomeApplied)
	metrics.IncMutation("remove_item", OutcomeNoop)
	metrics.ObserveStorage("save", 20*time.Millisecond, nil)
	metrics.ObserveStorage("save", 10*time.Millisecond, errors.New("down"))
	metrics.SetActiveSessions(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutations_total", map[string]string{"op": "add_item", "outcome": OutcomeApplied}); err != nil {
		t.Fatalf("fetch mutations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected add_item applied=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutations_total", map[string]string{"op": "remove_item", "outcome": OutcomeNoop}); err != nil {
		t.Fatalf("fetch mutations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected remove_item noop=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_storage_errors_total", map[string]string{"op": "save"}); err != nil {
		t.Fatalf("fetch storage errors: %v", err)
	} else if got != 1 {
		t.Fatalf("expected storage errors=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "cart_sessions_active")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("expected sessions gauge")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 3 {
		t.Fatalf("expected 3 active sessions, got %f", got)
	}
}

func TestNilCartMetricsIsNoop(t *testing.T) {
	var metrics *CartMetrics
	metrics.IncMutation("add_item", OutcomeApplied)
	metrics.ObserveStorage("load", time.Millisecond, nil)
	metrics.SetActiveSessions(1)

	empty := NewCartMetrics(nil)
	empty.IncMutation("", "")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
