// Package metrics exposes Prometheus instrumentation for a running FIX
// session engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects the counters and gauges one engine process exposes
// across all the sessions it hosts. Every method follows the nil
// receiver pattern: a nil *Metrics (returned by Null) makes every call a
// no-op, so instrumentation can be wired unconditionally and disabled
// only by not constructing a registered instance.
type Metrics struct {
	MessagesSent     *prometheus.CounterVec
	MessagesReceived *prometheus.CounterVec

	NextSentSeqNum *prometheus.GaugeVec
	NextRecvSeqNum *prometheus.GaugeVec

	HeartbeatMisses *prometheus.CounterVec
	AdminStateGauge *prometheus.GaugeVec
}

// New creates and, if reg is non-nil, registers session engine metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixengine_messages_sent_total",
				Help: "Total messages sent, by session and message name.",
			},
			[]string{"session", "message"},
		),
		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixengine_messages_received_total",
				Help: "Total messages received, by session and message name.",
			},
			[]string{"session", "message"},
		),
		NextSentSeqNum: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fixengine_next_sent_seqnum",
				Help: "Next outbound MsgSeqNum for a session.",
			},
			[]string{"session"},
		),
		NextRecvSeqNum: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fixengine_next_recv_seqnum",
				Help: "Next expected inbound MsgSeqNum for a session.",
			},
			[]string{"session"},
		),
		HeartbeatMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixengine_heartbeat_misses_total",
				Help: "Total TestRequest timeouts, by session.",
			},
			[]string{"session"},
		),
		AdminStateGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fixengine_admin_state",
				Help: "Current admin FSM state for a session (1 for the active state, 0 otherwise), by session and state name.",
			},
			[]string{"session", "state"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.MessagesSent,
			m.MessagesReceived,
			m.NextSentSeqNum,
			m.NextRecvSeqNum,
			m.HeartbeatMisses,
			m.AdminStateGauge,
		)
	}

	return m
}

// Null returns nil, which every method on *Metrics treats as a no-op.
func Null() *Metrics {
	return nil
}

func (m *Metrics) RecordSent(session, message string) {
	if m == nil {
		return
	}
	m.MessagesSent.WithLabelValues(session, message).Inc()
}

func (m *Metrics) RecordReceived(session, message string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(session, message).Inc()
}

func (m *Metrics) SetNextSentSeqNum(session string, seq int64) {
	if m == nil {
		return
	}
	m.NextSentSeqNum.WithLabelValues(session).Set(float64(seq))
}

func (m *Metrics) SetNextRecvSeqNum(session string, seq int64) {
	if m == nil {
		return
	}
	m.NextRecvSeqNum.WithLabelValues(session).Set(float64(seq))
}

func (m *Metrics) RecordHeartbeatMiss(session string) {
	if m == nil {
		return
	}
	m.HeartbeatMisses.WithLabelValues(session).Inc()
}

func (m *Metrics) SetAdminState(session, previous, current string) {
	if m == nil {
		return
	}
	if previous != "" {
		m.AdminStateGauge.WithLabelValues(session, previous).Set(0)
	}
	m.AdminStateGauge.WithLabelValues(session, current).Set(1)
}
