package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cusd"

type registry struct {
	rpcCalls       *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	decodeFailures *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	eventsSynced   prometheus.Counter
	syncedIndex    prometheus.Gauge
}

var (
	once sync.Once
	reg  *registry
)

func get() *registry {
	once.Do(func() {
		reg = &registry{
			rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "calls_total",
				Help:      "Node JSON-RPC calls by method and outcome.",
			}, []string{"method", "outcome"}),
			cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "State cache lookups by key kind and result.",
			}, []string{"kind", "result"}),
			decodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decode",
				Name:      "failures_total",
				Help:      "Stored values or events that failed to decode.",
			}, []string{"kind"}),
			submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tx",
				Name:      "submissions_total",
				Help:      "Transaction submissions by entry point and outcome.",
			}, []string{"entry_point", "outcome"}),
			eventsSynced: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "events_total",
				Help:      "Event log entries written by the archiver.",
			}),
			syncedIndex: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "next_index",
				Help:      "Next event log index the archiver will read.",
			}),
		}
		prometheus.MustRegister(
			reg.rpcCalls,
			reg.cacheLookups,
			reg.decodeFailures,
			reg.submissions,
			reg.eventsSynced,
			reg.syncedIndex,
		)
	})
	return reg
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRPC counts one node call.
func ObserveRPC(method string, err error) {
	get().rpcCalls.WithLabelValues(method, outcome(err)).Inc()
}

// ObserveCache counts one cache lookup for a key kind.
func ObserveCache(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	get().cacheLookups.WithLabelValues(kind, result).Inc()
}

func ObserveDecodeFailure(kind string) {
	get().decodeFailures.WithLabelValues(kind).Inc()
}

func ObserveSubmission(entryPoint string, err error) {
	get().submissions.WithLabelValues(entryPoint, outcome(err)).Inc()
}

// ObserveSync records archiver progress.
func ObserveSync(written int, nextIndex uint64) {
	r := get()
	r.eventsSynced.Add(float64(written))
	r.syncedIndex.Set(float64(nextIndex))
}
