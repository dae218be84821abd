// Package metrics 日记服务的 prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "diary"

// Metrics 服务指标集合
type Metrics struct {
	// WriteStages 写入流程进入各阶段的次数
	WriteStages *prometheus.CounterVec
	// WriteResults 写入结果，按错误类型区分
	WriteResults *prometheus.CounterVec
	// WriteDuration 从提交到终态的耗时
	WriteDuration prometheus.Histogram
	// WritesInFlight 进行中的写入
	WritesInFlight prometheus.Gauge
	// ChainReads 链上读取次数
	ChainReads *prometheus.CounterVec
	// CacheLookups 读缓存命中情况
	CacheLookups *prometheus.CounterVec
	// HistoryDaysDropped 历史查询中因读取失败被丢弃的天数
	HistoryDaysDropped prometheus.Counter
	// WSPushes WebSocket 推送次数
	WSPushes *prometheus.CounterVec
}

// New 在 reg 上注册全部指标，reg 为 nil 时使用默认注册表
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		WriteStages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_stage_total",
			Help:      "Write attempts entering each lifecycle stage.",
		}, []string{"stage"}),
		WriteResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_result_total",
			Help:      "Finished write attempts by result.",
		}, []string{"result"}),
		WriteDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_duration_seconds",
			Help:      "Time from submit to a terminal stage.",
			Buckets:   []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
		}),
		WritesInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "writes_in_flight",
			Help:      "Write attempts not yet in a terminal stage.",
		}),
		ChainReads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_read_total",
			Help:      "Contract reads by method and result.",
		}, []string{"method", "result"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookup_total",
			Help:      "Read cache lookups by result.",
		}, []string{"result"}),
		HistoryDaysDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_days_dropped_total",
			Help:      "History days left out because a read failed.",
		}),
		WSPushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_push_total",
			Help:      "WebSocket messages pushed by action.",
		}, []string{"action"}),
	}
}

// Nop 注册到独立注册表的指标，测试使用
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
