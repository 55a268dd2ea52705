package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Trawler/internal/domain"
	"github.com/shaiso/Trawler/internal/engine"
	"github.com/shaiso/Trawler/internal/mq"
	"github.com/shaiso/Trawler/internal/repo"
)

// Default configuration values.
const (
	defaultPollInterval = 15 * time.Second
	defaultPollLimit    = 20
	defaultPrefetch     = 1 // один run целиком занимает обработчик
)

// Service выполняет запуски workflow.
//
// Service — stateless компонент системы, который:
//   - Получает события run.pending из очереди RabbitMQ (event-driven)
//   - Периодически проверяет PENDING runs в БД (polling fallback)
//   - Захватывает run атомарно и выполняет его через Runner
//   - Сохраняет результаты шагов и итоговый статус в БД
//   - Публикует событие run.completed для внешних потребителей
//
// Экземпляры масштабируются горизонтально — несколько сервисов могут
// потреблять из одной очереди, захват через ClaimPending гарантирует,
// что run выполняется ровно одним экземпляром.
type Service struct {
	// Repositories
	jobRepo    *repo.JobRepo
	runRepo    *repo.RunRepo
	resultRepo *repo.StepResultRepo

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// Исполнитель запусков
	runner *Runner

	// Consumer для событий run.pending
	consumer *mq.Consumer

	pollInterval time.Duration
	pollLimit    int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// ServiceConfig — конфигурация Service.
type ServiceConfig struct {
	JobRepo    *repo.JobRepo
	RunRepo    *repo.RunRepo
	ResultRepo *repo.StepResultRepo
	Publisher  *mq.Publisher
	Conn       *mq.Connection
	Runner     *Runner

	PollInterval time.Duration // интервал опроса БД (default: 15s)
	PollLimit    int           // количество runs за один опрос (default: 20)

	Logger *slog.Logger
}

// NewService создаёт новый Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollLimit == 0 {
		cfg.PollLimit = defaultPollLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		jobRepo:      cfg.JobRepo,
		runRepo:      cfg.RunRepo,
		resultRepo:   cfg.ResultRepo,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		runner:       cfg.Runner,
		pollInterval: cfg.PollInterval,
		pollLimit:    cfg.PollLimit,
		logger:       cfg.Logger.With("component", "runner"),
	}
}

// Start запускает Service.
func (s *Service) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	s.logger.Info("starting runner service",
		"poll_interval", s.pollInterval,
		"poll_limit", s.pollLimit,
	)

	// Consumer поднимается только при живом соединении: без RabbitMQ
	// runs подхватываются из БД циклом polling
	if s.conn != nil {
		s.consumer = mq.NewConsumer(s.conn, s.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueRunsPending),
			Handler:  s.handleRunPending,
			Prefetch: defaultPrefetch,
		})

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("run consumer error", "error", err)
			}
		}()
	} else {
		s.logger.Warn("mq connection not available, polling only")
	}

	// Запускаем polling
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pollLoop(ctx)
	}()

	s.logger.Info("runner service started")
	return nil
}

// Stop останавливает Service.
func (s *Service) Stop() {
	s.stoppedMu.Lock()
	s.stopped = true
	s.stoppedMu.Unlock()

	s.logger.Info("stopping runner service...")

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	if s.consumer != nil {
		s.consumer.Stop()
	}

	// Ждём завершения горутин
	s.wg.Wait()

	s.logger.Info("runner service stopped")
}

// IsStopped проверяет, остановлен ли Service.
func (s *Service) IsStopped() bool {
	s.stoppedMu.RLock()
	defer s.stoppedMu.RUnlock()
	return s.stopped
}

// pollLoop — цикл polling для fallback.
func (s *Service) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем runs, созданные пока
	// сервис был выключен)
	s.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (s *Service) poll(ctx context.Context) {
	runs, err := s.runRepo.ListPending(ctx, s.pollLimit)
	if err != nil {
		s.logger.Error("failed to list pending runs", "error", err)
		return
	}

	if len(runs) == 0 {
		return
	}

	s.logger.Debug("found pending runs", "count", len(runs))

	for _, run := range runs {
		if ctx.Err() != nil {
			return
		}
		if err := s.processRun(ctx, run.ID); err != nil {
			// Run мог быть захвачен consumer'ом между ListPending и claim
			if errors.Is(err, ErrRunNotPending) {
				continue
			}
			s.logger.Error("failed to process run", "run_id", run.ID, "error", err)
		}
	}
}

// handleRunPending обрабатывает событие о новом run из очереди runs.pending.
func (s *Service) handleRunPending(ctx context.Context, msg *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunPendingPayload](&msg.Message)
	if err != nil {
		s.logger.Error("failed to parse run.pending payload", "error", err)
		return err
	}

	s.logger.Debug("received run.pending event", "run_id", payload.RunID)

	if err := s.processRun(ctx, payload.RunID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrRunNotPending) {
			s.logger.Debug("run not processed", "run_id", payload.RunID, "reason", err)
			return nil
		}
		s.logger.Error("failed to process run", "run_id", payload.RunID, "error", err)
		return err
	}

	return nil
}

// processRun загружает run из БД, выполняет его и сохраняет результат.
func (s *Service) processRun(ctx context.Context, runID uuid.UUID) error {
	// 1. Загружаем run из БД
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	// 2. Проверяем статус
	switch run.Status {
	case domain.RunStatusPending:
		// продолжаем
	case domain.RunStatusCancelling:
		// Отмена запрошена до начала выполнения — шаги не запускаем
		run.MarkCancelled()
		if err := s.runRepo.Update(ctx, run); err != nil {
			return fmt.Errorf("update run to cancelled: %w", err)
		}
		s.logger.Info("run cancelled before start", "run_id", run.ID)
		s.publishCompleted(ctx, run, "", 0, 0)
		return nil
	default:
		return fmt.Errorf("%w: %s is %s", ErrRunNotPending, runID, run.Status)
	}

	// 3. Захватываем run атомарно
	claimed, err := s.runRepo.ClaimPending(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("claim run: %w", err)
	}
	if !claimed {
		return fmt.Errorf("%w: %s already claimed", ErrRunNotPending, runID)
	}
	run.MarkRunning()

	// 4. Загружаем job
	job, err := s.jobRepo.GetByID(ctx, run.JobID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			run.MarkFailed(fmt.Sprintf("job %s not found", run.JobID))
			if uerr := s.runRepo.Update(ctx, run); uerr != nil {
				return fmt.Errorf("update run to failed: %w", uerr)
			}
			s.publishCompleted(ctx, run, "", 0, 0)
			return nil
		}
		return fmt.Errorf("get job: %w", err)
	}

	s.logger.Info("run started",
		"run_id", run.ID,
		"job", job.Name,
		"priority", run.Priority,
	)

	// 5. Выполняем workflow
	started := time.Now()
	ec, execErr := s.runner.Execute(ctx, job, run)
	durationMs := time.Since(started).Milliseconds()

	// 6. Обрабатываем результат
	if execErr != nil {
		// Невыполнимый граф или параметры — ни один шаг не запускался
		run.MarkFailed(execErr.Error())
		if err := s.runRepo.Update(ctx, run); err != nil {
			return fmt.Errorf("update run to failed: %w", err)
		}

		s.logger.Warn("run failed",
			"run_id", run.ID,
			"job", job.Name,
			"error", execErr,
		)

		s.publishCompleted(ctx, run, job.Name, 0, durationMs)
		return nil
	}

	// Сохраняем результаты шагов до финального статуса, чтобы потребители
	// run.completed уже видели их в БД. Не возвращаем ошибку — статус
	// запуска важнее истории шагов.
	if err := s.saveResults(ctx, run.ID, ec); err != nil {
		s.logger.Warn("failed to save step results", "run_id", run.ID, "error", err)
	}

	switch FinalStatus(ec) {
	case domain.RunStatusCancelled:
		run.MarkCancelled()
	default:
		run.MarkSucceeded()
	}
	if err := s.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run to %s: %w", run.Status, err)
	}

	failed := ec.FailedSteps()
	switch {
	case run.Status == domain.RunStatusCancelled:
		s.logger.Info("run cancelled",
			"run_id", run.ID,
			"job", job.Name,
			"steps", ec.ResultCount(),
			"duration_ms", durationMs,
		)
	case len(failed) > 0:
		s.logger.Warn("run succeeded with failed steps",
			"run_id", run.ID,
			"job", job.Name,
			"steps", ec.ResultCount(),
			"failed_steps", strings.Join(failed, ","),
			"duration_ms", durationMs,
		)
	default:
		s.logger.Info("run succeeded",
			"run_id", run.ID,
			"job", job.Name,
			"steps", ec.ResultCount(),
			"duration_ms", durationMs,
		)
	}

	s.publishCompleted(ctx, run, job.Name, ec.ResultCount(), durationMs)
	return nil
}

// saveResults сохраняет результаты шагов завершённого запуска.
func (s *Service) saveResults(ctx context.Context, runID uuid.UUID, ec *engine.Context) error {
	if s.resultRepo == nil || ec == nil || ec.ResultCount() == 0 {
		return nil
	}
	return s.resultRepo.SaveAll(ctx, runID, ec.Results())
}

// publishCompleted публикует событие run.completed.
func (s *Service) publishCompleted(ctx context.Context, run *domain.Run, jobName string, steps int, durationMs int64) {
	if s.publisher == nil {
		s.logger.Warn("publisher not available, skipping run.completed publish",
			"run_id", run.ID,
		)
		return
	}

	payload := mq.RunCompletedPayload{
		RunID:      run.ID,
		JobID:      run.JobID,
		JobName:    jobName,
		Status:     string(run.Status),
		Error:      run.Error,
		Steps:      steps,
		DurationMs: durationMs,
	}

	if err := s.publisher.PublishRunCompleted(ctx, payload); err != nil {
		s.logger.Warn("failed to publish run.completed",
			"run_id", run.ID,
			"error", err,
		)
		// Не возвращаем ошибку — run обновлён в БД, потребители подхватят
		// состояние оттуда
	}
}
