package portalloc

import metrics "github.com/docker/go-metrics"

var (
	ns = metrics.NewNamespace("yb", "portalloc", nil)

	allocationLatency = ns.NewTimer("allocation", "amount of time taken to allocate a locked free port")
	// outcome is one of bound, bind-busy, lock-busy.
	allocationAttempts = ns.NewLabeledCounter("attempts", "number of port allocation attempts by outcome", "outcome")
)

func init() {
	metrics.Register(ns)
}
