package netutil

import metrics "github.com/docker/go-metrics"

var (
	ns = metrics.NewNamespace("yb", "net", nil)

	resolveLatency  = ns.NewTimer("resolve", "amount of time taken to resolve a host into addresses")
	resolveFailures = ns.NewCounter("resolve_failures", "number of host lookups that returned no usable address")
)

func init() {
	metrics.Register(ns)
}
