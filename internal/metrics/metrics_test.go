package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OrderCreated()
	m.OrderCreated()
	m.PaymentRecorded(decimal.RequireFromString("250.50"))
	m.PaymentRejected("overpayment")
	m.InstallmentsOverdue(3)
	m.InstallmentsOverdue(0)
	m.OrderDefaulted()
	m.ObserveSweep(120 * time.Millisecond)
	m.RPCRequest("/shopcredit.ledger.v1.LedgerService/CreateOrder", "ok")

	require.Equal(t, 2.0, testutil.ToFloat64(m.ordersCreated))
	require.Equal(t, 1.0, testutil.ToFloat64(m.paymentsRecorded))
	require.InDelta(t, 250.50, testutil.ToFloat64(m.paymentAmount), 0.001)
	require.Equal(t, 1.0, testutil.ToFloat64(m.paymentRejections.WithLabelValues("overpayment")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.installmentsOverdue))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ordersDefaulted))
	require.Equal(t, 1, testutil.CollectAndCount(m.sweepDuration))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/shopcredit.ledger.v1.LedgerService/CreateOrder", "ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.OrderCreated()
		m.OrderCancelled()
		m.OrderDefaulted()
		m.PaymentRecorded(decimal.NewFromInt(1))
		m.PaymentRejected("invalid")
		m.InstallmentsOverdue(1)
		m.InstallmentWaived()
		m.ObserveSweep(time.Second)
		m.RPCRequest("p", "ok")
	})
}
