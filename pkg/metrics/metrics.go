package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the fulfillment service metrics. All record methods are safe
// to call on a nil *Metrics.
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka / outbox metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec
	OutboxPending        prometheus.Gauge

	// MongoDB metrics
	MongoDBTransactions        *prometheus.CounterVec
	MongoDBTransactionDuration *prometheus.HistogramVec

	// Business metrics
	PedidoStatusChanges    *prometheus.CounterVec
	ConferenciasConcluidas *prometheus.CounterVec
	TransporteTransitions  *prometheus.CounterVec
	ExcecoesRegistradas    *prometheus.CounterVec
	ParadasCriadas         prometheus.Counter
	ImpactoFinanceiroTotal prometheus.Counter

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a new Metrics instance on a private registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	ns := config.Namespace
	service := prometheus.Labels{"service": config.ServiceName}

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"service", "method", "path"}),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: service,
		}),

		KafkaEventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "kafka_events_published_total",
			Help:      "Total number of Kafka events published",
		}, []string{"service", "topic", "event_type", "status"}),
		KafkaPublishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "topic"}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Name:        "outbox_pending_events",
			Help:        "Unpublished events seen in the last outbox poll",
			ConstLabels: service,
		}),

		MongoDBTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "mongodb_transactions_total",
			Help:      "Total number of MongoDB transactions by outcome",
		}, []string{"service", "operation", "status"}),
		MongoDBTransactionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "mongodb_transaction_duration_seconds",
			Help:      "MongoDB transaction duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"service", "operation"}),

		PedidoStatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "pedido_status_changes_total",
			Help:      "Order status changes by resulting status",
		}, []string{"service", "status"}),
		ConferenciasConcluidas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "conferencias_concluidas_total",
			Help:      "Completed conferences by type and divergence",
		}, []string{"service", "tipo", "divergencia"}),
		TransporteTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "transporte_transitions_total",
			Help:      "Shipment status transitions",
		}, []string{"service", "from", "to"}),
		ExcecoesRegistradas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "excecoes_registradas_total",
			Help:      "Recorded operational exceptions",
		}, []string{"service", "tipo", "severidade"}),
		ParadasCriadas: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "paradas_criadas_total",
			Help:        "Route stops created",
			ConstLabels: service,
		}),
		ImpactoFinanceiroTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Name:        "excecoes_impacto_financeiro_total",
			Help:        "Accumulated financial impact of recorded exceptions",
			ConstLabels: service,
		}),

		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"service", "name"}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPRequestsInFlight,
		m.KafkaEventsPublished, m.KafkaPublishDuration, m.OutboxPending,
		m.MongoDBTransactions, m.MongoDBTransactionDuration,
		m.PedidoStatusChanges, m.ConferenciasConcluidas, m.TransporteTransitions,
		m.ExcecoesRegistradas, m.ParadasCriadas, m.ImpactoFinanceiroTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncrementHTTPRequestsInFlight() {
	if m != nil {
		m.HTTPRequestsInFlight.Inc()
	}
}

func (m *Metrics) DecrementHTTPRequestsInFlight() {
	if m != nil {
		m.HTTPRequestsInFlight.Dec()
	}
}

// RecordKafkaPublish records a Kafka publish attempt
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, statusLabel(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// SetOutboxPending sets the number of unpublished outbox events
func (m *Metrics) SetOutboxPending(count int) {
	if m != nil {
		m.OutboxPending.Set(float64(count))
	}
}

// RecordTransaction records the outcome of a unit of work
func (m *Metrics) RecordTransaction(operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.MongoDBTransactions.WithLabelValues(m.serviceName, operation, statusLabel(success)).Inc()
	m.MongoDBTransactionDuration.WithLabelValues(m.serviceName, operation).Observe(duration.Seconds())
}

// RecordPedidoStatus records an order reaching status
func (m *Metrics) RecordPedidoStatus(status string, count int) {
	if m != nil && count > 0 {
		m.PedidoStatusChanges.WithLabelValues(m.serviceName, status).Add(float64(count))
	}
}

// RecordConferenciaConcluida records a conference completion
func (m *Metrics) RecordConferenciaConcluida(tipo string, divergencia bool) {
	if m != nil {
		m.ConferenciasConcluidas.WithLabelValues(m.serviceName, tipo, strconv.FormatBool(divergencia)).Inc()
	}
}

// RecordTransporteTransition records a shipment status change
func (m *Metrics) RecordTransporteTransition(from, to string) {
	if m != nil {
		m.TransporteTransitions.WithLabelValues(m.serviceName, from, to).Inc()
	}
}

// RecordExcecao records a filed exception and its financial impact
func (m *Metrics) RecordExcecao(tipo, severidade string, impacto float64) {
	if m == nil {
		return
	}
	m.ExcecoesRegistradas.WithLabelValues(m.serviceName, tipo, severidade).Inc()
	if impacto > 0 {
		m.ImpactoFinanceiroTotal.Add(impacto)
	}
}

// RecordParadasCriadas records newly created route stops
func (m *Metrics) RecordParadasCriadas(count int) {
	if m != nil && count > 0 {
		m.ParadasCriadas.Add(float64(count))
	}
}

// SetCircuitBreakerState sets circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m != nil {
		m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
	}
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
