// Package metrics exposes Prometheus instruments for the ledger and RPC layer.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

const namespace = "shopcredit"

// Metrics holds the registered collectors.
type Metrics struct {
	ordersCreated       prometheus.Counter
	ordersCancelled     prometheus.Counter
	ordersDefaulted     prometheus.Counter
	paymentsRecorded    prometheus.Counter
	paymentAmount       prometheus.Counter
	paymentRejections   *prometheus.CounterVec
	installmentsOverdue prometheus.Counter
	installmentsWaived  prometheus.Counter
	sweepDuration       prometheus.Histogram
	rpcRequests         *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ordersCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Credit orders created.",
		}),
		ordersCancelled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Credit orders cancelled.",
		}),
		ordersDefaulted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_defaulted_total",
			Help:      "Credit orders moved to defaulted.",
		}),
		paymentsRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments committed to the ledger.",
		}),
		paymentAmount: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_amount_total",
			Help:      "Sum of committed payment amounts.",
		}),
		paymentRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_rejections_total",
			Help:      "Payments rejected, by reason.",
		}, []string{"reason"}),
		installmentsOverdue: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_overdue_total",
			Help:      "Installments moved from pending to overdue.",
		}),
		installmentsWaived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_waived_total",
			Help:      "Installments waived by manual override.",
		}),
		sweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delinquency_sweep_seconds",
			Help:      "Duration of full delinquency sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		rpcRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
	}
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) OrderCancelled() {
	if m == nil {
		return
	}
	m.ordersCancelled.Inc()
}

func (m *Metrics) OrderDefaulted() {
	if m == nil {
		return
	}
	m.ordersDefaulted.Inc()
}

func (m *Metrics) PaymentRecorded(amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.paymentsRecorded.Inc()
	m.paymentAmount.Add(amount.InexactFloat64())
}

// PaymentRejected counts a rejected payment under reason
// (invalid, overpayment, closed, conflict).
func (m *Metrics) PaymentRejected(reason string) {
	if m == nil {
		return
	}
	m.paymentRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) InstallmentsOverdue(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.installmentsOverdue.Add(float64(n))
}

func (m *Metrics) InstallmentWaived() {
	if m == nil {
		return
	}
	m.installmentsWaived.Inc()
}

func (m *Metrics) ObserveSweep(d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
}

func (m *Metrics) RPCRequest(procedure, code string) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
}
