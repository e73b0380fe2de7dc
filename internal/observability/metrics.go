package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	aggregateOps      *CounterVec
	aggregateLatency  *HistogramVec
	aggregateConflict *CounterVec
	aggregateRetry    *CounterVec

	lessonCompletions  *CounterVec
	courseCompletions  *Counter
	certificatesIssued *CounterVec
	badgesAwarded      *CounterVec
	awardEvents        *CounterVec
	secondaryFailures  *CounterVec
	activitiesRecorded *CounterVec
	reconcileItems     *CounterVec

	dbStats *GaugeVec
	redisUp *Gauge
}

var (
	initMu   sync.Mutex
	instance *Metrics
)

// Init builds the process-wide metrics registry. It returns nil when disabled;
// every method is nil-safe so callers never branch on it.
func Init(enabled bool, log *logger.Logger) *Metrics {
	if !enabled {
		return nil
	}
	initMu.Lock()
	defer initMu.Unlock()
	if instance != nil {
		return instance
	}
	instance = New()
	if log != nil {
		log.Info("metrics enabled")
	}
	return instance
}

func Current() *Metrics {
	initMu.Lock()
	defer initMu.Unlock()
	return instance
}

// New returns an unregistered registry; tests use it directly.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("kin_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"kin_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("kin_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("kin_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("kin_api_requests_error_total", "Total API requests answered with 5xx."),

		aggregateOps: NewCounterVec("kin_aggregate_operations_total", "Aggregate write operations by name/status.", []string{"aggregate_op", "status"}),
		aggregateLatency: NewHistogramVec(
			"kin_aggregate_operation_duration_seconds",
			"Aggregate write latency in seconds by name/status.",
			[]string{"aggregate_op", "status"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		),
		aggregateConflict: NewCounterVec("kin_aggregate_conflicts_total", "Aggregate conflicts by name.", []string{"aggregate_op"}),
		aggregateRetry:    NewCounterVec("kin_aggregate_retries_total", "Aggregate retries by name.", []string{"aggregate_op"}),

		lessonCompletions:  NewCounterVec("kin_lesson_completions_total", "Recorded lesson completions by outcome (new/repeat).", []string{"outcome"}),
		courseCompletions:  NewCounter("kin_course_completions_total", "Enrollments transitioned to completed."),
		certificatesIssued: NewCounterVec("kin_certificates_total", "Certificate issuance attempts by outcome.", []string{"outcome"}),
		badgesAwarded:      NewCounterVec("kin_badges_awarded_total", "Badges awarded by trigger type.", []string{"trigger_type"}),
		awardEvents:        NewCounterVec("kin_award_events_total", "Award events published by kind/status.", []string{"kind", "status"}),
		secondaryFailures:  NewCounterVec("kin_secondary_effect_failures_total", "Best-effort pipeline stage failures by stage.", []string{"stage"}),
		activitiesRecorded: NewCounterVec("kin_user_activities_total", "User activities recorded by kind/outcome.", []string{"kind", "outcome"}),
		reconcileItems:     NewCounterVec("kin_reconcile_items_total", "Reconciled enrollments by outcome.", []string{"outcome"}),

		dbStats: NewGaugeVec("kin_db_pool", "Database pool stats.", []string{"stat"}),
		redisUp: NewGauge("kin_redis_up", "Redis reachability (1 up, 0 down)."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflict, m.aggregateRetry,
		m.lessonCompletions, m.courseCompletions, m.certificatesIssued, m.badgesAwarded,
		m.awardEvents, m.secondaryFailures, m.activitiesRecorded, m.reconcileItems,
		m.dbStats, m.redisUp,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	name = strings.TrimSpace(name)
	m.aggregateOps.Inc(name, status)
	m.aggregateLatency.Observe(dur.Seconds(), name, status)
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	m.aggregateConflict.Inc(strings.TrimSpace(name))
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	m.aggregateRetry.Inc(strings.TrimSpace(name))
}

func (m *Metrics) IncLessonCompletion(newlyCompleted bool) {
	if m == nil {
		return
	}
	outcome := "repeat"
	if newlyCompleted {
		outcome = "new"
	}
	m.lessonCompletions.Inc(outcome)
}

func (m *Metrics) IncCourseCompletion() {
	if m == nil {
		return
	}
	m.courseCompletions.Inc()
}

// IncCertificate records an issuance outcome: issued, existing, skipped or failed.
func (m *Metrics) IncCertificate(outcome string) {
	if m == nil {
		return
	}
	m.certificatesIssued.Inc(outcome)
}

func (m *Metrics) IncBadgeAwarded(triggerType string) {
	if m == nil {
		return
	}
	m.badgesAwarded.Inc(triggerType)
}

func (m *Metrics) IncAwardEvent(kind, status string) {
	if m == nil {
		return
	}
	m.awardEvents.Inc(kind, status)
}

func (m *Metrics) IncSecondaryFailure(stage string) {
	if m == nil {
		return
	}
	m.secondaryFailures.Inc(stage)
}

func (m *Metrics) IncActivity(kind string, inserted bool) {
	if m == nil {
		return
	}
	outcome := "duplicate"
	if inserted {
		outcome = "recorded"
	}
	m.activitiesRecorded.Inc(kind, outcome)
}

func (m *Metrics) IncReconcile(outcome string) {
	if m == nil {
		return
	}
	m.reconcileItems.Inc(outcome)
}

// StartDBCollector samples sql.DB pool stats on an interval until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

// StartRedisCollector pings the event bus redis on an interval until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
			}
		}
	}()
}
