package otel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	tokenAuth "github.com/MrEthical07/tokenAuth"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot tokenAuth.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() tokenAuth.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := tokenAuth.MetricsSnapshot{
		Counters:   make(map[tokenAuth.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[tokenAuth.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("tokenauth-test")

	src := &fakeSource{
		snapshot: tokenAuth.MetricsSnapshot{
			Counters: map[tokenAuth.MetricID]uint64{
				tokenAuth.MetricSignInSuccess: 3,
			},
			Histograms: map[tokenAuth.MetricID][]uint64{
				tokenAuth.MetricValidateLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}

	values := map[string]int64{}
	buckets := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					values[m.Name] = data.DataPoints[0].Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					le, ok := dp.Attributes.Value(attribute.Key("le"))
					if !ok {
						t.Fatalf("%s: data point without le attribute", m.Name)
					}
					buckets[le.AsString()] = dp.Value
				}
			}
		}
	}

	if got := values["tokenauth_sign_in_success_total"]; got != 3 {
		t.Fatalf("expected sign-in counter 3, got %d", got)
	}
	if got := values["tokenauth_validate_latency_seconds_count"]; got != 8 {
		t.Fatalf("expected 8 samples, got %d", got)
	}
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %v", buckets)
	}
	if buckets["0.005"] != 1 || buckets["0.1"] != 5 || buckets["+Inf"] != 8 {
		t.Fatalf("unexpected cumulative buckets %v", buckets)
	}
	if got := values["tokenauth_audit_dropped_total"]; got != 1 {
		t.Fatalf("expected audit dropped 1, got %d", got)
	}
}

func TestNewOTelExporterNilEngine(t *testing.T) {
	meter := sdkmetric.NewMeterProvider().Meter("tokenauth-test")
	if _, err := NewOTelExporter(meter, nil); !errors.Is(err, ErrNilSource) {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); !errors.Is(err, ErrNilMeter) {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("tokenauth-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("tokenauth-test")

	src := &fakeSource{
		snapshot: tokenAuth.MetricsSnapshot{
			Counters: map[tokenAuth.MetricID]uint64{
				tokenAuth.MetricSignInSuccess: 1,
			},
			Histograms: map[tokenAuth.MetricID][]uint64{
				tokenAuth.MetricValidateLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[tokenAuth.MetricSignInSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
