package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Стороны урегулирования для счётчика сумм
const (
	LegCustomerRefund   = "customer_refund"
	LegProviderPayout   = "provider_payout"
	LegPlatformRetained = "platform_retained"
)

const (
	outcomeResolved = "resolved"
	outcomeFailed   = "failed"
)

// Config задаёт постоянные метки метрик.
type Config struct {
	ServiceName string
	Environment string
}

// ResolutionMetrics - метрики урегулирования споров по приёмам.
type ResolutionMetrics struct {
	resolutions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	amounts     *prometheus.CounterVec
}

func NewResolutionMetrics(registerer prometheus.Registerer, cfg Config) *ResolutionMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "telehealth"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "telehealth_dispute_resolutions_total",
		Help:        "Урегулированные споры по решению и источнику оплаты.",
		ConstLabels: constLabels,
	}, []string{"decision", "funding"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "telehealth_dispute_resolution_failures_total",
		Help:        "Отклонённые или прерванные урегулирования по коду ошибки.",
		ConstLabels: constLabels,
	}, []string{"decision", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "telehealth_dispute_resolution_duration_seconds",
		Help:        "Длительность урегулирования, включая ожидание блокировки приёма.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	}, []string{"outcome"})
	amounts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "telehealth_settlement_amount_total",
		Help:        "Суммы, распределённые при урегулировании, по сторонам.",
		ConstLabels: constLabels,
	}, []string{"leg"})

	registerer.MustRegister(resolutions, failures, duration, amounts)

	return &ResolutionMetrics{
		resolutions: resolutions,
		failures:    failures,
		duration:    duration,
		amounts:     amounts,
	}
}

func (m *ResolutionMetrics) ObserveResolved(decision, funding string, customerRefund, providerPayout, platformRetained decimal.Decimal, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(normalizeLabel(decision), normalizeLabel(funding)).Inc()
	m.duration.WithLabelValues(outcomeResolved).Observe(elapsed.Seconds())
	m.addAmount(LegCustomerRefund, customerRefund)
	m.addAmount(LegProviderPayout, providerPayout)
	m.addAmount(LegPlatformRetained, platformRetained)
}

func (m *ResolutionMetrics) ObserveFailed(decision, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(normalizeDecision(decision), normalizeLabel(code)).Inc()
	m.duration.WithLabelValues(outcomeFailed).Observe(elapsed.Seconds())
}

func (m *ResolutionMetrics) addAmount(leg string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	m.amounts.WithLabelValues(leg).Add(amount.InexactFloat64())
}

// normalizeDecision держит кардинальность метки decision ограниченной: произвольный ввод схлопывается в "invalid".
func normalizeDecision(decision string) string {
	switch d := strings.ToUpper(strings.TrimSpace(decision)); d {
	case "REFUND_CUSTOMER", "PAYOUT_DOCTOR", "PARTIAL_REFUND":
		return d
	default:
		return "invalid"
	}
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
