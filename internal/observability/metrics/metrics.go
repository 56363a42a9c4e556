// Package metrics exposes table and export activity as Prometheus series.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "sspdb_"

	resultSuccess = "success"
	resultError   = "error"
)

// Recorder holds the registered collectors. It satisfies table.Observer.
type Recorder struct {
	tableOps     *prometheus.CounterVec
	tableLatency *prometheus.HistogramVec
	exportTotal  *prometheus.CounterVec
	exportRows   *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		tableOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "table_operations_total",
				Help: "Total table operations by table, operation and result",
			},
			[]string{"table", "operation", "result"},
		),
		tableLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "table_operation_latency_seconds",
				Help:    "Table operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"table", "operation"},
		),
		exportTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		),
		exportRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_rows_total",
				Help: "Rows written by exports, by format and table",
			},
			[]string{"format", "table"},
		),
	}
	for _, c := range []prometheus.Collector{r.tableOps, r.tableLatency, r.exportTotal, r.exportRows} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records one table operation.
func (r *Recorder) Observe(_ context.Context, table, operation string, success bool, duration time.Duration) {
	r.tableOps.WithLabelValues(table, operation, result(success)).Inc()
	r.tableLatency.WithLabelValues(table, operation).Observe(duration.Seconds())
}

// ObserveExport records one export run.
func (r *Recorder) ObserveExport(format string, success bool) {
	r.exportTotal.WithLabelValues(format, result(success)).Inc()
}

// AddExportRows counts rows written for table by an export.
func (r *Recorder) AddExportRows(format, table string, n int) {
	r.exportRows.WithLabelValues(format, table).Add(float64(n))
}

func result(success bool) string {
	if success {
		return resultSuccess
	}
	return resultError
}
