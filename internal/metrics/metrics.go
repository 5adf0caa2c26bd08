package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hive-dashboard/internal/chat"
	"hive-dashboard/internal/telemetry"
)

// Collector exports feed and chat activity on its own registry.
type Collector struct {
	registry *prometheus.Registry
	ticks    prometheus.Counter
	reading  *prometheus.GaugeVec
	sends    *prometheus.CounterVec
	latency  prometheus.Histogram
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hive_feed_ticks_total",
			Help: "Number of samples appended to the rolling window.",
		}),
		reading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hive_latest_reading",
			Help: "Most recent simulated reading per metric.",
		}, []string{"metric"}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hive_chat_sends_total",
			Help: "Chat send attempts by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hive_chat_reply_latency_seconds",
			Help:    "Time from accepted send to settled reply.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	c.registry.MustRegister(c.ticks, c.reading, c.sends, c.latency)
	return c
}

// ObserveWindow is a telemetry.Feed subscriber.
func (c *Collector) ObserveWindow(window []telemetry.Sample) {
	if len(window) == 0 {
		return
	}
	c.ticks.Inc()
	c.ObserveSample(window[len(window)-1])
}

// ObserveSample updates the latest-reading gauges without counting a tick.
func (c *Collector) ObserveSample(s telemetry.Sample) {
	c.reading.WithLabelValues("temperature").Set(s.Temperature)
	c.reading.WithLabelValues("humidity").Set(s.Humidity)
	c.reading.WithLabelValues("weight").Set(s.Weight)
	c.reading.WithLabelValues("activity").Set(float64(s.Activity))
}

// ObserveSend implements chat.Observer.
func (c *Collector) ObserveSend(outcome chat.Outcome, latency time.Duration) {
	c.sends.WithLabelValues(string(outcome)).Inc()
	if outcome != chat.OutcomeRejected {
		c.latency.Observe(latency.Seconds())
	}
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var _ chat.Observer = (*Collector)(nil)
