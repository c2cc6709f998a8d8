// Package registry holds the block kernels a biquad section can dispatch to.
package registry

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
)

// Coefficients are biquad transfer coefficients (a0 normalized to 1).
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// ProcessBlockFn processes buf in-place with one biquad section and returns
// the updated state.
type ProcessBlockFn func(c Coefficients, d0, d1 float64, buf []float64) (newD0, newD1 float64)

// OpEntry is one registered kernel.
type OpEntry struct {
	Name         string
	SIMDLevel    cpu.SIMDLevel
	Priority     int
	ProcessBlock ProcessBlockFn
}

// OpRegistry stores available kernels ordered by priority.
type OpRegistry struct {
	mu      sync.RWMutex
	entries []OpEntry
}

// Global is the default kernel registry.
var Global = &OpRegistry{}

// Register adds a kernel, keeping entries sorted by descending priority.
func (r *OpRegistry) Register(entry OpEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := len(r.entries)
	r.entries = append(r.entries, entry)

	for i > 0 && r.entries[i-1].Priority < entry.Priority {
		r.entries[i] = r.entries[i-1]
		i--
	}

	r.entries[i] = entry
}

// Lookup returns the highest-priority kernel supported by features.
func (r *OpRegistry) Lookup(features cpu.Features) *OpEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		if cpu.Supports(features, r.entries[i].SIMDLevel) {
			entry := r.entries[i]
			return &entry
		}
	}

	return nil
}

// Names lists registered kernels in lookup order.
func (r *OpRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i := range r.entries {
		names[i] = r.entries[i].Name
	}

	return names
}
