package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Trawler/internal/cancel"
	"github.com/shaiso/Trawler/internal/dedup"
	"github.com/shaiso/Trawler/internal/domain"
	"github.com/shaiso/Trawler/internal/engine"
	"github.com/shaiso/Trawler/internal/fetch"
	"github.com/shaiso/Trawler/internal/telemetry"
)

// defaultStepTimeout — таймаут шага, когда ни шаг, ни defaults job
// его не задали.
const defaultStepTimeout = 30 * time.Second

// RegistryProvider выдаёт свежий реестр стратегий на каждый запуск.
// Реализуется fetch.Factory.
type RegistryProvider interface {
	NewRegistry() *fetch.Registry
}

// Config — зависимости и настройки Runner.
type Config struct {
	// Strategies — фабрика реестров стратегий получения. Обязательно.
	Strategies RegistryProvider

	// Cancel — источник флага кооперативной отмены.
	// nil — отмена никогда не запрашивается.
	Cancel cancel.Checker

	// Sink — приёмник метрик. nil — метрики не собираются.
	Sink telemetry.Sink

	// StepTimeout — таймаут шага по умолчанию. 0 — 30 секунд.
	StepTimeout time.Duration

	// Logger — логгер. nil — slog.Default().
	Logger *slog.Logger
}

// Runner выполняет один запуск job: строит граф зависимостей, идёт по
// шагам в топологическом порядке и складывает результаты в контекст
// выполнения. Шаги одного запуска идут строго последовательно;
// параллелизм живёт уровнем ниже — в обходе целей внутри шага.
type Runner struct {
	strategies  RegistryProvider
	cancel      cancel.Checker
	sink        telemetry.Sink
	stepTimeout time.Duration
	logger      *slog.Logger
}

// New создаёт Runner и подставляет значения по умолчанию.
func New(cfg Config) *Runner {
	if cfg.Cancel == nil {
		cfg.Cancel = cancel.None{}
	}
	if cfg.Sink == nil {
		cfg.Sink = telemetry.NopSink{}
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		strategies:  cfg.Strategies,
		cancel:      cfg.Cancel,
		sink:        cfg.Sink,
		stepTimeout: cfg.StepTimeout,
		logger:      cfg.Logger,
	}
}

// Execute выполняет запуск run для job от начала до конца и возвращает
// контекст выполнения со всеми результатами.
//
// Наружу возвращаются только ошибки построения графа и разрешения
// входных параметров — они фатальны для запуска и означают, что ни
// один шаг не выполнялся. Любой сбой отдельного шага (пустая цель,
// таймаут, провал всех целей, паника стратегии) превращается в failed
// StepResult, и запуск продолжается: упавший необязательный шаг не
// должен терять данные остальных.
//
// Флаг отмены опрашивается перед каждым шагом. Запрошенная отмена
// помечает контекст, уже накопленные результаты сохраняются.
func (r *Runner) Execute(ctx context.Context, job *domain.Job, run *domain.Run) (*engine.Context, error) {
	if job == nil {
		return nil, ErrNilJob
	}
	if run == nil {
		return nil, ErrNilRun
	}

	log := telemetry.WithRunID(telemetry.WithJobName(r.logger, job.Name), run.ID.String())

	r.sink.RunStarted(job.Name)
	started := time.Now()

	graph, err := engine.BuildGraph(job.Spec.Steps)
	if err != nil {
		r.sink.RunFinished(job.Name, string(domain.RunStatusFailed), time.Since(started))
		return nil, fmt.Errorf("build graph: %w", err)
	}

	// API проверяет параметры при создании run, но run может прийти
	// и из scheduler — повторяем проверку на входе в выполнение.
	params, err := engine.ResolveParams(&job.Spec, run.Params)
	if err != nil {
		r.sink.RunFinished(job.Name, string(domain.RunStatusFailed), time.Since(started))
		return nil, fmt.Errorf("resolve params: %w", err)
	}

	ec := engine.NewContext(job.Spec.BaseURL, params)
	resolver := engine.NewResolver(ec)
	evaluator := engine.NewEvaluator(ec, log)

	// Реестр стратегий живёт ровно один запуск: Cleanup каждой
	// стратегии вызывается один раз, при выходе.
	reg := r.strategies.NewRegistry()
	defer reg.CleanupAll()

	seen := dedup.NewTracker()

	log.Info("run started", "steps", graph.Size())

	for _, name := range graph.Order {
		// Отмена проверяется перед каждым шагом; начатый шаг
		// не обрывается на середине.
		if ctx.Err() != nil || r.cancel.IsCancelled(ctx, run.ID) {
			ec.MarkCancelled()
			log.Info("run cancelled", "completed_steps", ec.ResultCount())
			break
		}

		step := graph.Nodes[name].Step
		res := r.executeStep(ctx, log, reg, resolver, evaluator, job, step, seen)
		ec.AddResult(res)

		durMs, _ := metaInt64(res.Metadata, domain.MetaDurationMs)
		r.sink.StepFinished(job.Name, step.Name, string(res.Status()),
			time.Duration(durMs)*time.Millisecond, stepAttempts(res))

		log.Info("step finished",
			"step", step.Name,
			"status", res.Status(),
			"duration_ms", durMs)
	}

	elapsed := time.Since(started)
	final := FinalStatus(ec)
	r.sink.RunFinished(job.Name, string(final), elapsed)
	log.Info("run finished",
		"status", final,
		"steps", ec.ResultCount(),
		"failed", len(ec.FailedSteps()),
		"duration", elapsed.Round(time.Millisecond))

	return ec, nil
}

// FinalStatus выводит терминальный статус запуска из контекста.
//
// Запуск с упавшими шагами всё равно считается завершённым: провал
// шага — свойство шага, а не запуска. Статус FAILED запуск получает
// только снаружи, когда Execute вернул ошибку построения графа.
func FinalStatus(ec *engine.Context) domain.RunStatus {
	if ec.Cancelled() {
		return domain.RunStatusCancelled
	}
	return domain.RunStatusSucceeded
}

// stepAttempts достаёт число попыток из метаданных результата.
func stepAttempts(res *domain.StepResult) int {
	if n, ok := metaInt(res.Metadata, domain.MetaAttempts); ok {
		return n
	}
	return 1
}
