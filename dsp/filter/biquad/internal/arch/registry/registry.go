// Package registry holds the CPU-dispatched second-order block kernels used
// by biquad.Filter.
package registry

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
)

// Section holds the coefficients of one second-order recursion step.
// The feedback slot a[0] is not part of the recursion and is not stored here.
type Section struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// ProcessBlockFn runs the recursion over buf in place, starting from the
// delay-line values z0, z1, and returns the updated delay line.
//
// Every kernel must evaluate, per sample and in this order:
//
//	y  = B0*x + z0
//	z0 = B1*x + z1 - A1*y
//	z1 = B2*x - A2*y
type ProcessBlockFn func(s Section, z0, z1 float64, buf []float64) (newZ0, newZ1 float64)

// OpEntry is one registered kernel.
type OpEntry struct {
	Name         string
	SIMDLevel    cpu.SIMDLevel
	Priority     int
	ProcessBlock ProcessBlockFn
}

// OpRegistry stores the available kernels.
type OpRegistry struct {
	mu      sync.RWMutex
	entries []OpEntry
	sorted  bool
}

// Global is the registry consulted by biquad.Filter.
var Global = &OpRegistry{}

// Register adds a kernel entry.
func (r *OpRegistry) Register(entry OpEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest-priority kernel supported by features.
func (r *OpRegistry) Lookup(features cpu.Features) *OpEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.sorted {
		r.sortByPriority()
		r.sorted = true
	}

	for i := range r.entries {
		entry := &r.entries[i]
		if cpu.Supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

func (r *OpRegistry) sortByPriority() {
	for i := 1; i < len(r.entries); i++ {
		key := r.entries[i]
		j := i - 1
		for j >= 0 && r.entries[j].Priority < key.Priority {
			r.entries[j+1] = r.entries[j]
			j--
		}
		r.entries[j+1] = key
	}
}

// Names returns the registered kernel names in lookup order.
func (r *OpRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.sorted {
		r.sortByPriority()
		r.sorted = true
	}

	names := make([]string, len(r.entries))
	for i := range r.entries {
		names[i] = r.entries[i].Name
	}
	return names
}
