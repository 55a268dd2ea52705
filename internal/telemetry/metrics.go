package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink принимает метрики выполнения запусков.
//
// Runner получает Sink явно через свою конфигурацию — глобальных
// счётчиков в коде выполнения нет. В тестах подставляется NopSink.
type Sink interface {
	// RunStarted — запуск взят в работу.
	RunStarted(job string)

	// RunFinished — запуск завершён с терминальным статусом.
	RunFinished(job, status string, d time.Duration)

	// StepFinished — шаг завершён; attempts — сделанные попытки.
	StepFinished(job, step, status string, d time.Duration, attempts int)

	// TargetsFetched — шаг обошёл n целевых URL.
	TargetsFetched(job string, n int)
}

// NopSink — заглушка Sink для тестов и урезанных конфигураций.
type NopSink struct{}

func (NopSink) RunStarted(string)                                       {}
func (NopSink) RunFinished(string, string, time.Duration)               {}
func (NopSink) StepFinished(string, string, string, time.Duration, int) {}
func (NopSink) TargetsFetched(string, int)                              {}

// PromSink отдаёт метрики в Prometheus через регистратор по умолчанию.
// Экспонируются через promhttp.Handler() в main.
type PromSink struct {
	runsStarted   *prometheus.CounterVec
	runsFinished  *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	stepsFinished *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	stepAttempts  *prometheus.CounterVec
	targets       *prometheus.CounterVec
}

// NewPromSink регистрирует метрики. Вызывается один раз на процесс:
// повторная регистрация тех же метрик приводит к панике promauto.
func NewPromSink() *PromSink {
	return &PromSink{
		runsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trawler_runs_started_total",
			Help: "Runs taken for execution",
		}, []string{"job"}),
		runsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trawler_runs_finished_total",
			Help: "Finished runs by terminal status",
		}, []string{"job", "status"}),
		runDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trawler_run_duration_seconds",
			Help:    "Run wall time",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"job"}),
		stepsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trawler_steps_finished_total",
			Help: "Finished steps by terminal status",
		}, []string{"job", "step", "status"}),
		stepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trawler_step_duration_seconds",
			Help:    "Step wall time",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"job", "step"}),
		stepAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trawler_step_attempts_total",
			Help: "Retrieval attempts including retries",
		}, []string{"job", "step"}),
		targets: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trawler_targets_fetched_total",
			Help: "Target URLs visited by steps",
		}, []string{"job"}),
	}
}

func (s *PromSink) RunStarted(job string) {
	s.runsStarted.WithLabelValues(job).Inc()
}

func (s *PromSink) RunFinished(job, status string, d time.Duration) {
	s.runsFinished.WithLabelValues(job, status).Inc()
	s.runDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (s *PromSink) StepFinished(job, step, status string, d time.Duration, attempts int) {
	s.stepsFinished.WithLabelValues(job, step, status).Inc()
	s.stepDuration.WithLabelValues(job, step).Observe(d.Seconds())
	if attempts > 0 {
		s.stepAttempts.WithLabelValues(job, step).Add(float64(attempts))
	}
}

func (s *PromSink) TargetsFetched(job string, n int) {
	if n > 0 {
		s.targets.WithLabelValues(job).Add(float64(n))
	}
}
