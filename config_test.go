// Config default-resolution tests.
package otlpmmap

import "testing"

func TestConfigResolveDefaults(t *testing.T) {
	got := Config{}.resolve()

	if got.Capacities != DefaultCapacities() {
		t.Errorf("Capacities = %+v, want %+v", got.Capacities, DefaultCapacities())
	}
	if got.CollectorInterval != DefaultCollectorIntervalNs {
		t.Errorf("CollectorInterval = %d, want %d", got.CollectorInterval, DefaultCollectorIntervalNs)
	}
	if got.HashAlgorithm != HashXXH3 {
		t.Errorf("HashAlgorithm = %d, want HashXXH3", got.HashAlgorithm)
	}
	if got.Logger == nil {
		t.Error("Logger should default to a non-nil no-op logger")
	}
}

func TestConfigResolvePreservesExplicitFields(t *testing.T) {
	custom := Capacities{Dictionary: 1, MetricLane: 2, SpanLane: 3, EventLane: 4}
	got := Config{Capacities: custom, CollectorInterval: 5000, HashAlgorithm: HashBlake2b}.resolve()

	if got.Capacities != custom {
		t.Errorf("Capacities = %+v, want %+v", got.Capacities, custom)
	}
	if got.CollectorInterval != 5000 {
		t.Errorf("CollectorInterval = %d, want 5000", got.CollectorInterval)
	}
	if got.HashAlgorithm != HashBlake2b {
		t.Errorf("HashAlgorithm = %d, want HashBlake2b", got.HashAlgorithm)
	}
}
