// Package metrics implements the instrumentation hooks the bus emits at
// topic put, topic get, and subscription callback invocation. A
// collector is optional: NopHooks makes the hooks free when nothing is
// attached, and PromHooks backs them with Prometheus collectors the way
// github.com/kilianp07/v2g's metrics.PromSink backs its dispatch
// metrics and github.com/fluxorio/fluxor's
// pkg/observability/prometheus exposes its registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Hooks receives the bus's instrumentation events: a publish, a poll
// read, a delivered callback, and a subscription's stop-time drain.
// OnPut and OnGet carry no account, since Reader/Writer operations have
// no owning subscription.
type Hooks interface {
	OnPut(topic string, serialNo uint64)
	OnGet(topic string, serialNo uint64)
	OnCallback(account, topic string, iteration uint64, latency time.Duration)
	OnTopicStop(topic string, processed, unprocessed uint64)
}

// NopHooks discards every event. It is the default when no collector is
// attached, per the bus's "implementers may no-op these hooks" policy.
type NopHooks struct{}

func (NopHooks) OnPut(string, uint64)                             {}
func (NopHooks) OnGet(string, uint64)                             {}
func (NopHooks) OnCallback(string, string, uint64, time.Duration) {}
func (NopHooks) OnTopicStop(string, uint64, uint64)               {}

// PromHooks records bus activity as Prometheus collectors.
type PromHooks struct {
	puts       *prometheus.CounterVec
	gets       *prometheus.CounterVec
	callbacks  *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	topicStops *prometheus.CounterVec
}

// NewPromHooks registers the bus's collectors on reg. If reg is nil,
// prometheus.DefaultRegisterer is used. If the collectors are already
// registered (e.g. a second Switchboard in the same process), the
// existing ones are reused rather than erroring, mirroring
// metrics.NewPromSink's AlreadyRegisteredError recovery in v2g.
func NewPromHooks(reg prometheus.Registerer) (*PromHooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	puts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "switchboard_topic_puts_total",
		Help: "Total number of events published to a topic.",
	}, []string{"topic"})
	gets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "switchboard_topic_gets_total",
		Help: "Total number of latest-value reads from a topic.",
	}, []string{"topic"})
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "switchboard_callbacks_total",
		Help: "Total number of subscription callbacks invoked.",
	}, []string{"account", "topic"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "switchboard_callback_latency_seconds",
		Help:    "Time spent inside a subscription callback.",
		Buckets: prometheus.DefBuckets,
	}, []string{"account", "topic"})
	topicStops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "switchboard_topic_stop_unprocessed_total",
		Help: "Number of events discarded unprocessed when a topic stopped.",
	}, []string{"topic"})

	collectors := []struct {
		c   prometheus.Collector
		set func(prometheus.Collector)
	}{
		{puts, func(c prometheus.Collector) { puts = c.(*prometheus.CounterVec) }},
		{gets, func(c prometheus.Collector) { gets = c.(*prometheus.CounterVec) }},
		{callbacks, func(c prometheus.Collector) { callbacks = c.(*prometheus.CounterVec) }},
		{latency, func(c prometheus.Collector) { latency = c.(*prometheus.HistogramVec) }},
		{topicStops, func(c prometheus.Collector) { topicStops = c.(*prometheus.CounterVec) }},
	}
	for _, entry := range collectors {
		if err := reg.Register(entry.c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			entry.set(are.ExistingCollector)
		}
	}

	return &PromHooks{
		puts:       puts,
		gets:       gets,
		callbacks:  callbacks,
		latency:    latency,
		topicStops: topicStops,
	}, nil
}

func (p *PromHooks) OnPut(topic string, _ uint64) {
	p.puts.WithLabelValues(topic).Inc()
}

func (p *PromHooks) OnGet(topic string, _ uint64) {
	p.gets.WithLabelValues(topic).Inc()
}

func (p *PromHooks) OnCallback(account, topic string, _ uint64, latency time.Duration) {
	p.callbacks.WithLabelValues(account, topic).Inc()
	p.latency.WithLabelValues(account, topic).Observe(latency.Seconds())
}

func (p *PromHooks) OnTopicStop(topic string, _, unprocessed uint64) {
	p.topicStops.WithLabelValues(topic).Add(float64(unprocessed))
}
