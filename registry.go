// Process-wide singleton registry keyed by canonical file path: every
// provider created for the same path within a process shares the one
// Exporter for it, obtained via explicit construct/close rather than
// hidden module-load side effects.
package otlpmmap

import (
	"path/filepath"
	"sync"
)

var (
	registryMu sync.Mutex
	registry   = make(map[string]*Exporter)
)

// Get returns the process's existing Exporter for path, creating one
// with cfg if none exists yet. cfg is ignored on a cache hit — the
// first caller to reach a given path wins the configuration.
func Get(path string, cfg Config) (*Exporter, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errorf(ErrInvalidArgument, "resolve path: %w", err)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if e, ok := registry[abs]; ok {
		return e, nil
	}

	e, err := newExporter(abs, cfg)
	if err != nil {
		return nil, err
	}
	registry[abs] = e
	return e, nil
}

// forget removes path's exporter from the registry without closing it.
// Close calls this itself, so a later Get for the same path creates a
// fresh Exporter.
func forget(path string) {
	registryMu.Lock()
	delete(registry, path)
	registryMu.Unlock()
}
