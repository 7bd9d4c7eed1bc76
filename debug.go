package sock

import "github.com/wiresock/sock/control"

// RegisterDebugProbes registers probes exposing the default registry's
// and packet pool's occupancy under dp, keyed "sock.registry.*" and
// "sock.pool.*". Typical use is wiring dp into an HTTP debug endpoint.
func RegisterDebugProbes(dp *control.DebugProbes) {
	control.RegisterPlatformProbes(dp)
	dp.RegisterProbe("sock.registry.capacity", func() any { return defaultRegistry.Stats().Capacity })
	dp.RegisterProbe("sock.registry.open", func() any { return defaultRegistry.Stats().Open })
	dp.RegisterProbe("sock.registry.pending", func() any { return defaultRegistry.Stats().Pending })
	dp.RegisterProbe("sock.pool.capacity", func() any { return defaultPool.Stats().Capacity })
	dp.RegisterProbe("sock.pool.free", func() any { return defaultPool.Stats().Free })
	dp.RegisterProbe("sock.pool.in_use", func() any { return defaultPool.Stats().InUse })
}

// PublishMetrics pushes a one-shot snapshot of registry/pool occupancy
// into mr, under the same key names as RegisterDebugProbes. Call this
// periodically (e.g. from a ticker) to keep a MetricsRegistry current.
func PublishMetrics(mr *control.MetricsRegistry) {
	rs := defaultRegistry.Stats()
	ps := defaultPool.Stats()
	mr.Set("sock.registry.capacity", rs.Capacity)
	mr.Set("sock.registry.open", rs.Open)
	mr.Set("sock.registry.pending", rs.Pending)
	mr.Set("sock.pool.capacity", ps.Capacity)
	mr.Set("sock.pool.free", ps.Free)
	mr.Set("sock.pool.in_use", ps.InUse)
}
