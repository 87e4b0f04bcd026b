package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	connectionsActive   prometheus.Gauge
	connectionsAccepted prometheus.Counter
	connectionsClosed   *prometheus.CounterVec

	messagesReceived prometheus.Counter
	messageBytes     prometheus.Histogram
	decodeFailures   prometheus.Counter

	digestsStored prometheus.Counter
	sinkFailures  prometheus.Counter

	framesDecoded prometheus.Counter
}

// NewPrometheusCollector registers the pipeline metrics with reg. A nil reg
// gets a private registry that nothing scrapes.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rillstats_connections_active",
			Help: "Number of WebSocket connections currently in the pool",
		}),

		connectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rillstats_connections_accepted_total",
			Help: "Total number of WebSocket connections registered in the pool",
		}),

		connectionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rillstats_connections_closed_total",
			Help: "Total number of connections removed from the pool",
		}, []string{"reason"}),

		messagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "rillstats_messages_received_total",
			Help: "Total number of WebSocket messages read",
		}),

		messageBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rillstats_message_size_bytes",
			Help:    "Size of received WebSocket messages",
			Buckets: prometheus.ExponentialBuckets(256, 2, 8),
		}),

		decodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "rillstats_decode_failures_total",
			Help: "Total number of messages that did not decode into a digest",
		}),

		digestsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "rillstats_digests_stored_total",
			Help: "Total number of digests handed to the sink successfully",
		}),

		sinkFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "rillstats_sink_failures_total",
			Help: "Total number of digests the sink failed to write",
		}),

		framesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "rillstats_local_frames_decoded_total",
			Help: "Total number of frame headers decoded from the local socket",
		}),
	}
}

func (p *PrometheusCollector) RecordConnectionAccepted() {
	p.connectionsAccepted.Inc()
	p.connectionsActive.Inc()
}

// RecordConnectionClosed counts a removal; reason is "evicted" or "closed".
func (p *PrometheusCollector) RecordConnectionClosed(reason string) {
	p.connectionsClosed.WithLabelValues(reason).Inc()
	p.connectionsActive.Dec()
}

func (p *PrometheusCollector) RecordMessage(size int) {
	p.messagesReceived.Inc()
	p.messageBytes.Observe(float64(size))
}

func (p *PrometheusCollector) RecordDecodeFailure() {
	p.decodeFailures.Inc()
}

func (p *PrometheusCollector) RecordDigestStored() {
	p.digestsStored.Inc()
}

func (p *PrometheusCollector) RecordSinkFailure() {
	p.sinkFailures.Inc()
}

func (p *PrometheusCollector) RecordFrameDecoded() {
	p.framesDecoded.Inc()
}
