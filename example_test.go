package otlpmmap_test

import (
	"fmt"
	"os"
	"path/filepath"

	otlpmmap "github.com/jsuereth/otlp-mmap-go"
)

func Example() {
	dir, _ := os.MkdirTemp("", "otlpmmap-example")
	defer os.RemoveAll(dir)

	e, err := otlpmmap.New(filepath.Join(dir, "telemetry.otlpmmap"), otlpmmap.Config{})
	if err != nil {
		panic(err)
	}
	defer e.Close()

	svcName, _ := e.InternString("svc")
	resourceAttrs, _ := e.InternAttributeSet(otlpmmap.Attrs{
		"service.name": otlpmmap.StringValue(svcName),
	})
	resource, _ := e.CreateResource(resourceAttrs, otlpmmap.NoHandle)

	scopeName, _ := e.InternString("svc-scope")
	scope, _ := e.CreateInstrumentationScope(resource, scopeName, otlpmmap.NoHandle, otlpmmap.NoHandle)

	metricName, _ := e.InternString("requests_total")
	unit, _ := e.InternString("1")
	stream, err := e.CreateMetricStream(scope, metricName, otlpmmap.NoHandle, unit,
		otlpmmap.Aggregation{Kind: otlpmmap.AggregationSum, Temporality: otlpmmap.TemporalityDelta, Monotonic: true})
	if err != nil {
		panic(err)
	}

	if err := e.RecordCounterAdd(stream, otlpmmap.Attrs{}, 1_000, 10.0); err != nil {
		panic(err)
	}

	fmt.Println("metric stream created:", stream != otlpmmap.NoHandle)
	// Output: metric stream created: true
}
