// The async collector: a single background goroutine that invokes
// registered observable-instrument callbacks on a fixed tick and records
// their yielded observations as Measurements.
package otlpmmap

import (
	"sync"
	"time"
)

// Observation is one (value, attributes) pair yielded by an observable
// callback for a single tick.
type Observation struct {
	Value float64
	Attrs Attrs
}

// ObservableCallback produces zero or more Observations for its bound
// metric stream when invoked on a collector tick. A callback that
// panics is recovered and recorded as a drop — it never brings down the
// collector goroutine.
type ObservableCallback func() ([]Observation, error)

type observableRegistration struct {
	stream   Handle
	callback ObservableCallback
}

// collector owns the tick goroutine and the list of registered
// observable callbacks for one Exporter.
type collector struct {
	exporter *Exporter
	interval time.Duration

	mu            sync.Mutex
	observables   []observableRegistration
	running       bool
	stopCh        chan struct{}
	doneCh        chan struct{}
}

func newCollector(e *Exporter) *collector {
	return &collector{
		exporter: e,
		interval: time.Duration(e.cfg.CollectorInterval),
	}
}

// RegisterObservable adds a callback invoked on every tick, whose
// yielded observations are recorded against stream.
func (c *collector) RegisterObservable(stream Handle, cb ObservableCallback) {
	c.mu.Lock()
	c.observables = append(c.observables, observableRegistration{stream: stream, callback: cb})
	c.mu.Unlock()
}

// Start launches the tick goroutine. Idempotent: a second call while
// already running is a no-op.
func (c *collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.run(c.stopCh, c.doneCh)
}

// Stop signals the tick goroutine to exit and joins it. A no-op if the
// collector was never started.
func (c *collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stopCh, doneCh := c.stopCh, c.doneCh
	c.mu.Unlock()

	close(stopCh)
	<-doneCh
}

func (c *collector) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick copies the callback list under a short lock, then invokes each
// callback outside the lock so a slow callback never blocks
// registration.
func (c *collector) tick() {
	c.mu.Lock()
	regs := make([]observableRegistration, len(c.observables))
	copy(regs, c.observables)
	c.mu.Unlock()

	now := nowNs()
	for _, reg := range regs {
		c.invoke(reg, now)
	}
}

func (c *collector) invoke(reg observableRegistration, now int64) {
	defer func() {
		if r := recover(); r != nil {
			c.exporter.logger.Errorw("otlpmmap: observable callback panicked", "panic", r)
			c.exporter.recordDrop(dropLaneCallback)
		}
	}()

	obs, err := reg.callback()
	if err != nil {
		c.exporter.logger.Errorw("otlpmmap: observable callback failed", "error", err)
		c.exporter.recordDrop(dropLaneCallback)
		return
	}
	for _, o := range obs {
		if err := c.exporter.RecordMeasurement(reg.stream, o.Attrs, now, o.Value, SpanContext{}); err != nil {
			c.exporter.logger.Errorw("otlpmmap: failed to record observation", "error", err)
		}
	}
}

// RegisterObservable exposes the collector's registration call on the
// façade, so adapters never need to reach past Exporter for it.
func (e *Exporter) RegisterObservable(stream Handle, cb ObservableCallback) {
	e.collector.RegisterObservable(stream, cb)
}

// StartCollector starts the exporter's background collector goroutine.
func (e *Exporter) StartCollector() { e.collector.Start() }

// StopCollector stops the exporter's background collector goroutine.
func (e *Exporter) StopCollector() { e.collector.Stop() }
