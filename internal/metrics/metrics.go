// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordUserRegistered()
	RecordPostCreated()
	RecordLikeCreated()
	RecordCommentCreated()
	RecordFollowCreated()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	usersRegistered prometheus.Counter
	postsCreated    prometheus.Counter
	likesCreated    prometheus.Counter
	commentsCreated prometheus.Counter
	followsCreated  prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		usersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "microblog_users_registered_total",
			Help: "登録されたユーザーの合計数",
		}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "microblog_posts_created_total",
			Help: "作成された投稿の合計数",
		}),
		likesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "microblog_likes_created_total",
			Help: "新規に付与されたいいねの合計数（冪等な再付与は含まない）",
		}),
		commentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "microblog_comments_created_total",
			Help: "作成されたコメントの合計数",
		}),
		followsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "microblog_follows_created_total",
			Help: "作成されたフォローエッジの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microblog_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "microblog_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.usersRegistered,
		c.postsCreated,
		c.likesCreated,
		c.commentsCreated,
		c.followsCreated,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordUserRegistered はユーザー登録を記録する。
func (c *Collector) RecordUserRegistered() {
	c.usersRegistered.Inc()
}

// RecordPostCreated は投稿作成を記録する。
func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

// RecordLikeCreated は新規いいねの付与を記録する。
func (c *Collector) RecordLikeCreated() {
	c.likesCreated.Inc()
}

// RecordCommentCreated はコメント作成を記録する。
func (c *Collector) RecordCommentCreated() {
	c.commentsCreated.Inc()
}

// RecordFollowCreated はフォローエッジの作成を記録する。
func (c *Collector) RecordFollowCreated() {
	c.followsCreated.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ MetricsCollector = (*Collector)(nil)
