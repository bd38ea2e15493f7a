package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type EscrowMetrics struct {
	created   prometheus.Counter
	funded    prometheus.Counter
	approved  prometheus.Counter
	cancelled prometheus.Counter
	rejected  *prometheus.CounterVec
	openDeals prometheus.Gauge
}

var (
	escrowOnce     sync.Once
	escrowRegistry *EscrowMetrics
)

func Escrow() *EscrowMetrics {
	escrowOnce.Do(func() {
		escrowRegistry = &EscrowMetrics{
			created: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "escrow_deals_created_total",
				Help: "Count of deals initialised.",
			}),
			funded: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "escrow_deals_funded_total",
				Help: "Count of deals successfully funded.",
			}),
			approved: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "escrow_deals_approved_total",
				Help: "Count of deals released to the seller.",
			}),
			cancelled: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "escrow_deals_cancelled_total",
				Help: "Count of deals refunded to the buyer.",
			}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "escrow_messages_rejected_total",
				Help: "Count of rejected inbound messages by exit code.",
			}, []string{"code"}),
			openDeals: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "escrow_open_deals",
				Help: "Number of deals currently live (created or funded).",
			}),
		}
		prometheus.MustRegister(
			escrowRegistry.created,
			escrowRegistry.funded,
			escrowRegistry.approved,
			escrowRegistry.cancelled,
			escrowRegistry.rejected,
			escrowRegistry.openDeals,
		)
	})
	return escrowRegistry
}

func (m *EscrowMetrics) DealCreated() {
	m.created.Inc()
	m.openDeals.Inc()
}

func (m *EscrowMetrics) DealFunded() { m.funded.Inc() }

func (m *EscrowMetrics) DealApproved() {
	m.approved.Inc()
	m.openDeals.Dec()
}

func (m *EscrowMetrics) DealCancelled() {
	m.cancelled.Inc()
	m.openDeals.Dec()
}

func (m *EscrowMetrics) MessageRejected(code uint16) {
	m.rejected.WithLabelValues(strconv.FormatUint(uint64(code), 10)).Inc()
}
