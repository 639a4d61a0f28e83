/*
 * @module service/runs/metrics
 * @description 摄取链路的 Prometheus 指标
 * @architecture 分层架构 - 可观测性
 * @documentReference ai_docs/observability.md
 * @stateFlow 进程启动时注册，摄取路径打点
 * @rules 指标仅计数，不承载业务判断
 * @dependencies github.com/prometheus/client_golang
 * @refs service/runs/service.go
 */

package runs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labqc_ingest_total",
		Help: "摄取请求计数，按结果分类",
	}, []string{"result"})

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "labqc_ingest_duration_seconds",
		Help:    "单次摄取耗时",
		Buckets: prometheus.DefBuckets,
	})

	ingestRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labqc_ingest_rows_total",
		Help: "摄取写入的行计数，按行类型分类",
	}, []string{"kind"})
)
