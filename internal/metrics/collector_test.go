package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounterAndGauge(t *testing.T) {
	c := NewCollector()

	ctr := c.Counter("retirebot_test_total", "test counter", "")
	ctr.Inc()
	ctr.Add(2)
	if ctr.Value() != 3 {
		t.Fatalf("expected 3, got %d", ctr.Value())
	}

	g := c.Gauge("retirebot_test_gauge", "test gauge", "")
	g.Set(5)
	g.Dec()
	if g.Value() != 4 {
		t.Fatalf("expected 4, got %d", g.Value())
	}
}

func TestCounter_SameNameSameInstance(t *testing.T) {
	c := NewCollector()
	a := c.Counter("retirebot_dup_total", "dup", "")
	b := c.Counter("retirebot_dup_total", "dup", "")
	if a != b {
		t.Fatal("expected the same counter instance for the same key")
	}
}

func TestHandler_ExpositionFormat(t *testing.T) {
	c := NewCollector()
	c.Counter("retirebot_messages_total", "Total messages processed", "").Add(7)
	c.Counter("retirebot_routing_decisions_total", "Routing decisions by domain", `domain="medicare"`).Inc()
	c.Histogram("retirebot_reply_latency_seconds", "latency", "", []float64{1, 5}).Observe(0.4)

	rec := httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"retirebot_uptime_seconds",
		"retirebot_messages_total 7",
		`retirebot_routing_decisions_total{domain="medicare"} 1`,
		`retirebot_reply_latency_seconds_bucket{le="1"} 1`,
		"retirebot_reply_latency_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition output missing %q:\n%s", want, body)
		}
	}
}
