package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestClientMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewClientMetrics(reg)

	metrics.IncRefreshFailure("cart")
	metrics.IncRefreshFailure("cart")
	metrics.IncMutation("add_unit", "rejected")
	metrics.IncCheckout("success")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "pos_refresh_failures_total", map[string]string{"kind": "cart"}); err != nil {
		t.Fatalf("fetch refresh failures: %v", err)
	} else if got != 2 {
		t.Fatalf("expected refresh failures=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "pos_mutations_total", map[string]string{"op": "add_unit", "outcome": "rejected"}); err != nil {
		t.Fatalf("fetch mutations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected mutations=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "pos_checkouts_total", map[string]string{"outcome": "success"}); err != nil {
		t.Fatalf("fetch checkouts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected checkouts=1, got %f", got)
	}
}

func TestClientMetricsNormalizesEmptyLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewClientMetrics(reg)

	metrics.IncRefreshFailure("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "pos_refresh_failures_total", map[string]string{"kind": "unknown"}); err != nil {
		t.Fatalf("fetch refresh failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected refresh failures=1, got %f", got)
	}
}

func TestClientMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewClientMetrics(nil)
	metrics.IncRefreshFailure("cart")
	metrics.IncMutation("add_unit", "ok")
	metrics.IncCheckout("failure")

	var nilMetrics *ClientMetrics
	nilMetrics.IncCheckout("failure")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if matchesLabels(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue(), nil
			}
		}
		return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
	}
	return 0, fmt.Errorf("metric %q not found", name)
}

func matchesLabels(pairs []*dto.LabelPair, labels map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if want, ok := labels[pair.GetName()]; ok {
			if pair.GetValue() != want {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}
