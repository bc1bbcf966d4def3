// Package metrics holds the process-wide Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argote_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "argote_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	MovimientosRegistrados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argote_ledger_movimientos_total",
			Help: "Ledger movements recorded, by type",
		},
		[]string{"tipo"},
	)

	MovimientosRechazados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argote_ledger_rechazos_total",
			Help: "Ledger movements rejected, by reason",
		},
		[]string{"motivo"},
	)

	MovimientosPodados = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "argote_ledger_podados_total",
			Help: "Ledger rows deleted by the retention cap",
		},
	)

	TrabajosTransiciones = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argote_trabajos_transiciones_total",
			Help: "Job lifecycle events (creado, iniciar_fresado, completar, eliminado)",
		},
		[]string{"accion"},
	)

	JobsEncolados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argote_worker_jobs_total",
			Help: "Background jobs by type and outcome",
		},
		[]string{"tipo", "resultado"},
	)

	ClientesSSE = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "argote_sse_clientes",
			Help: "Connected realtime clients",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		MovimientosRegistrados,
		MovimientosRechazados,
		MovimientosPodados,
		TrabajosTransiciones,
		JobsEncolados,
		ClientesSSE,
	)
}
