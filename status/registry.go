package status

import "sync/atomic"

// Metric keys written by the runtime loop and script bridge
const (
	KeyFrames        = "engine.frames"
	KeySteps         = "engine.steps"
	KeyFPS           = "engine.fps"
	KeyDroppedTime   = "engine.dropped_ms"
	KeyGlobalScripts = "script.global"
	KeyEntityScripts = "script.entity"
	KeyScriptErrors  = "script.errors"
	KeyActiveScene   = "scene.active"
)

// Registry groups metrics by value type
// Owners cache pointers at construction; the loop then writes atomics without map lookups
type Registry struct {
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

func NewRegistry() *Registry {
	return &Registry{
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// Snapshot copies every metric into a plain map, used for shutdown diagnostics
func (r *Registry) Snapshot() map[string]any {
	out := make(map[string]any, r.TotalCount())
	r.Ints.Range(func(k string, v *atomic.Int64) { out[k] = v.Load() })
	r.Floats.Range(func(k string, v *AtomicFloat) { out[k] = v.Load() })
	r.Strings.Range(func(k string, v *AtomicString) { out[k] = v.Load() })
	return out
}

func (r *Registry) TotalCount() int {
	return r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}
