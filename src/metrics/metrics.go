// Package metrics 集中定义Prometheus指标
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatasetLoadsTotal 数据集加载次数
	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covid_dataset_loads_total",
			Help: "Total number of dataset loads by dataset and status",
		},
		[]string{"dataset", "status"},
	)

	// DatasetRows 当前快照的行数
	DatasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "covid_dataset_rows",
			Help: "Number of rows in the currently loaded dataset",
		},
		[]string{"dataset"},
	)

	// DatasetLoadDuration 加载耗时
	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "covid_dataset_load_duration_seconds",
			Help:    "Time spent reading and cleaning a dataset",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dataset"},
	)

	// RendersTotal 仪表盘接口调用次数
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covid_dashboard_renders_total",
			Help: "Total number of dashboard renders by endpoint and HTTP status",
		},
		[]string{"endpoint", "status"},
	)

	// RenderDuration 每次渲染重新计算的耗时
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "covid_dashboard_render_duration_seconds",
			Help:    "Time spent filtering and aggregating for one render",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"endpoint"},
	)

	// ExportsTotal 报表导出次数
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covid_report_exports_total",
			Help: "Total number of xlsx report exports by status",
		},
		[]string{"status"},
	)
)

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordLoad 记录一次数据集加载
func RecordLoad(dataset string, duration time.Duration, rows int, err error) {
	DatasetLoadsTotal.WithLabelValues(dataset, status(err)).Inc()
	DatasetLoadDuration.WithLabelValues(dataset).Observe(duration.Seconds())
	if err == nil {
		DatasetRows.WithLabelValues(dataset).Set(float64(rows))
	}
}

// RecordRender 记录一次接口渲染
func RecordRender(endpoint string, code int, duration time.Duration) {
	RendersTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	RenderDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordExport 记录一次报表导出
func RecordExport(err error) {
	ExportsTotal.WithLabelValues(status(err)).Inc()
}
