package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Trawler/internal/domain"
	"github.com/shaiso/Trawler/internal/engine"
	"github.com/shaiso/Trawler/internal/mq"
	"github.com/shaiso/Trawler/internal/repo"
)

// Scheduler — планировщик, обрабатывающий due schedules.
type Scheduler struct {
	scheduleRepo *repo.ScheduleRepo
	runRepo      *repo.RunRepo
	jobRepo      *repo.JobRepo
	publisher    *mq.Publisher
	logger       *slog.Logger
	batchSize    int
}

// Config — конфигурация Scheduler.
type Config struct {
	ScheduleRepo *repo.ScheduleRepo
	RunRepo      *repo.RunRepo
	JobRepo      *repo.JobRepo
	Publisher    *mq.Publisher
	Logger       *slog.Logger
	BatchSize    int // количество schedules за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduleRepo: cfg.ScheduleRepo,
		runRepo:      cfg.RunRepo,
		jobRepo:      cfg.JobRepo,
		publisher:    cfg.Publisher,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due schedules (enabled=true, next_due_at <= now)
// 2. Для каждого schedule создаёт run с параметрами и приоритетом расписания
// 3. Обновляет next_due_at
// 4. Публикует run.pending в RabbitMQ
//
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	schedules, err := s.scheduleRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var processed, created int
	for i := range schedules {
		sched := &schedules[i]

		runCreated, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		processed++
		if runCreated {
			created++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"processed", processed,
		"runs_created", created,
	)

	return nil
}

// processSchedule обрабатывает один schedule.
// Возвращает true, если run был создан (не был дубликатом).
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	// 1. Job должен существовать и быть активным
	job, err := s.jobRepo.GetByID(ctx, sched.JobID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.logger.Warn("job not found for schedule, skipping",
				"schedule_id", sched.ID,
				"job_id", sched.JobID,
			)
			return false, s.advance(ctx, sched, now)
		}
		return false, fmt.Errorf("get job: %w", err)
	}

	if !job.IsActive {
		s.logger.Debug("job is inactive, skipping schedule",
			"schedule_id", sched.ID,
			"job", job.Name,
		)
		return false, s.advance(ctx, sched, now)
	}

	// 2. Параметры расписания сверяем со спецификацией job: спецификация
	// могла измениться после создания schedule
	params, err := engine.ResolveParams(&job.Spec, sched.Params)
	if err != nil {
		s.logger.Error("schedule params do not match job spec, skipping",
			"schedule_id", sched.ID,
			"job", job.Name,
			"error", err,
		)
		return false, s.advance(ctx, sched, now)
	}

	// 3. Idempotency key "{schedule_id}_{next_due_at_unix}": для одного
	// слота расписания создаётся ровно один run
	idempKey := fmt.Sprintf("%s_%d", sched.ID, sched.NextDueAt.Unix())

	existing, err := s.runRepo.GetByIdempotencyKey(ctx, sched.JobID, idempKey)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return false, fmt.Errorf("check idempotency: %w", err)
	}

	var runCreated bool
	var runID uuid.UUID

	if existing != nil {
		s.logger.Debug("run already exists (idempotency)",
			"schedule_id", sched.ID,
			"run_id", existing.ID,
			"idempotency_key", idempKey,
		)
		runID = existing.ID
	} else {
		run := &domain.Run{
			ID:             uuid.New(),
			JobID:          sched.JobID,
			Status:         domain.RunStatusPending,
			Params:         params,
			Priority:       sched.Priority,
			IdempotencyKey: idempKey,
			CreatedAt:      now,
		}

		err := s.runRepo.Create(ctx, run)
		switch {
		case err == nil:
			runID = run.ID
			runCreated = true
			s.logger.Info("created run from schedule",
				"run_id", run.ID,
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"job", job.Name,
				"priority", run.Priority,
			)
		case errors.Is(err, repo.ErrAlreadyExists):
			// Гонка с другим экземпляром планировщика — run уже создан
			raced, gerr := s.runRepo.GetByIdempotencyKey(ctx, sched.JobID, idempKey)
			if gerr != nil || raced == nil {
				return false, fmt.Errorf("create run: %w", err)
			}
			runID = raced.ID
		default:
			return false, fmt.Errorf("create run: %w", err)
		}
	}

	// 4. Вычисляем следующее время срабатывания
	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		// Иначе schedule будет выбираться каждым тиком заново
		s.logger.Error("failed to calculate next due, disabling schedule",
			"schedule_id", sched.ID,
			"error", err,
		)
		if derr := s.scheduleRepo.SetEnabled(ctx, sched.ID, false); derr != nil {
			return runCreated, fmt.Errorf("disable schedule: %w", derr)
		}
		return runCreated, nil
	}

	// 5. Обновляем schedule
	sched.RecordRun(runID, nextDue)
	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return runCreated, fmt.Errorf("update schedule: %w", err)
	}

	// 6. Публикуем событие (если publisher настроен и run создан)
	if s.publisher != nil && runCreated {
		if err := s.publisher.PublishRunPending(ctx, runID, sched.Priority); err != nil {
			// Не фатальная ошибка — runner подберёт run через polling
			s.logger.Warn("failed to publish run.pending",
				"run_id", runID,
				"error", err,
			)
		}
	}

	return runCreated, nil
}

// advance сдвигает next_due_at пропущенного schedule вперёд, не
// записывая запуск. Без сдвига пропущенный schedule выбирался бы
// каждым тиком заново.
func (s *Scheduler) advance(ctx context.Context, sched *domain.Schedule, now time.Time) error {
	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		s.logger.Error("failed to calculate next due, disabling schedule",
			"schedule_id", sched.ID,
			"error", err,
		)
		return s.scheduleRepo.SetEnabled(ctx, sched.ID, false)
	}

	sched.NextDueAt = &nextDue
	sched.UpdatedAt = now
	return s.scheduleRepo.Update(ctx, sched)
}
