// Package metrics publica métricas Prometheus de las operaciones de stock y del transporte HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/pos-inventario/internal/application/inventory"
)

// Nombres de métricas.
const (
	MetricStockOperationsTotal   = "pos_stock_operations_total"
	MetricStockOperationSeconds  = "pos_stock_operation_duration_seconds"
	MetricStockConflictsTotal    = "pos_stock_version_conflicts_total"
	MetricHTTPRequestsTotal      = "pos_http_requests_total"
	MetricHTTPRequestDurationSec = "pos_http_request_duration_seconds"
)

var _ inventory.Metrics = (*Prometheus)(nil)

// Prometheus implementa inventory.Metrics sobre un registro propio.
//
// Seguro para uso concurrente.
type Prometheus struct {
	registry *prometheus.Registry

	operations  *prometheus.CounterVec
	opDuration  *prometheus.HistogramVec
	conflicts   *prometheus.CounterVec
	httpTotal   *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

// NewPrometheus crea y registra los colectores (incluye métricas de proceso y runtime de Go).
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStockOperationsTotal,
			Help: "Operaciones que mutan stock, por operación y resultado.",
		}, []string{"op", "outcome"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricStockOperationSeconds,
			Help:    "Duración de las operaciones de stock, incluidos los reintentos.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStockConflictsTotal,
			Help: "Conflictos de versión detectados al confirmar stock.",
		}, []string{"op"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "Peticiones HTTP atendidas.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDurationSec,
			Help:    "Latencia de las peticiones HTTP.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		p.operations, p.opDuration, p.conflicts, p.httpTotal, p.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// ObserveOperation registra el resultado y la duración de una operación de stock.
func (p *Prometheus) ObserveOperation(op, outcome string, elapsed time.Duration) {
	p.operations.WithLabelValues(op, outcome).Inc()
	p.opDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveConflict cuenta un conflicto de versión.
func (p *Prometheus) ObserveConflict(op string) {
	p.conflicts.WithLabelValues(op).Inc()
}

// ObserveHTTP registra una petición atendida. route es la plantilla de ruta, no la URL.
func (p *Prometheus) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	p.httpTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler expone el registro en formato de exposición de Prometheus.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry devuelve el registro subyacente.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
