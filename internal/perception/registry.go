package perception

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fieldrover/worldmodel/internal/config"
)

// Registry maps device IDs to their pipelines. Callers own the registry
// and its lifetime; creating two registries gives two fully independent
// worlds.
type Registry struct {
	cfg *config.TuningConfig

	mu        sync.RWMutex
	pipelines map[string]*Pipeline
}

// NewRegistry creates an empty registry whose pipelines share one tuning
// config.
func NewRegistry(cfg *config.TuningConfig) *Registry {
	return &Registry{
		cfg:       cfg,
		pipelines: make(map[string]*Pipeline),
	}
}

// Create builds and registers a pipeline for a device. Registering the
// same device twice is an error; use Lookup for idempotent access.
func (r *Registry) Create(deviceID string) (*Pipeline, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device ID must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pipelines[deviceID]; exists {
		return nil, fmt.Errorf("pipeline for device %q already exists", deviceID)
	}
	p, err := NewPipeline(deviceID, r.cfg)
	if err != nil {
		return nil, err
	}
	r.pipelines[deviceID] = p
	return p, nil
}

// Lookup returns the pipeline for a device, if registered.
func (r *Registry) Lookup(deviceID string) (*Pipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pipelines[deviceID]
	return p, ok
}

// Remove drops a device's pipeline. Removing an unregistered device is a
// no-op.
func (r *Registry) Remove(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pipelines, deviceID)
}

// DeviceIDs lists the registered devices in sorted order.
func (r *Registry) DeviceIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.pipelines))
	for id := range r.pipelines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Teardown drops every pipeline.
func (r *Registry) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelines = make(map[string]*Pipeline)
}
