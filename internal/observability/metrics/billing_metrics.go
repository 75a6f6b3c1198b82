package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics tracks invoice and payment activity.
type BillingMetrics struct {
	invoicesCreated       prometheus.Counter
	paymentsRecorded      *prometheus.CounterVec
	cardConfirmations     *prometheus.CounterVec
	remindersSent         prometheus.Counter
	reconciliationAnomaly prometheus.Counter
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the process-wide billing metrics, registering them on first use.
func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest clears the singleton between test registries.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := prometheus.Labels{
		"service": serviceNameOr(cfg.ServiceName),
		"env":     environmentOr(cfg.Environment),
	}

	invoicesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "campbaraisa_invoices_created_total",
		Help:        "Total invoices created.",
		ConstLabels: constLabels,
	})
	paymentsRecorded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "campbaraisa_payments_recorded_total",
			Help:        "Total payments recorded by method.",
			ConstLabels: constLabels,
		},
		[]string{"method"},
	)
	cardConfirmations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "campbaraisa_card_confirmations_total",
			Help:        "Card payment confirmations by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // settled | duplicate | orphaned
	)
	remindersSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "campbaraisa_reminders_sent_total",
		Help:        "Total payment reminders recorded.",
		ConstLabels: constLabels,
	})
	reconciliationAnomaly := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "campbaraisa_reconciliation_anomalies_total",
		Help:        "Observed ledger reconciliation anomalies.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		invoicesCreated,
		paymentsRecorded,
		cardConfirmations,
		remindersSent,
		reconciliationAnomaly,
	)

	return &BillingMetrics{
		invoicesCreated:       invoicesCreated,
		paymentsRecorded:      paymentsRecorded,
		cardConfirmations:     cardConfirmations,
		remindersSent:         remindersSent,
		reconciliationAnomaly: reconciliationAnomaly,
	}
}

func (m *BillingMetrics) IncInvoiceCreated() {
	if m == nil {
		return
	}
	m.invoicesCreated.Inc()
}

func (m *BillingMetrics) IncPaymentRecorded(method string) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(method).Inc()
}

func (m *BillingMetrics) IncCardConfirmation(result string) {
	if m == nil {
		return
	}
	m.cardConfirmations.WithLabelValues(result).Inc()
}

func (m *BillingMetrics) IncReminderSent() {
	if m == nil {
		return
	}
	m.remindersSent.Inc()
}

func (m *BillingMetrics) IncReconciliationAnomaly() {
	if m == nil {
		return
	}
	m.reconciliationAnomaly.Inc()
}
