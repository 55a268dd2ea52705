// Package cancel — кооперативная отмена запусков.
//
// Отмена не прерывает шаг в полёте: runner опрашивает флаг между
// шагами и, увидев его, чисто останавливает запуск, сохранив уже
// записанные результаты. Источник флага — забота реализации: в
// тестах и одиночном процессе это память, в кластере — статус
// запуска в БД, который выставляет API.
package cancel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/Trawler/internal/domain"
)

// Checker сообщает, запрошена ли отмена запуска.
type Checker interface {
	IsCancelled(ctx context.Context, runID uuid.UUID) bool
}

// None — отмена никогда не запрошена.
type None struct{}

// IsCancelled всегда возвращает false.
func (None) IsCancelled(context.Context, uuid.UUID) bool { return false }

// Memory — флаг отмены в памяти процесса.
type Memory struct {
	mu        sync.RWMutex
	cancelled map[uuid.UUID]struct{}
}

// NewMemory создаёт пустой Memory.
func NewMemory() *Memory {
	return &Memory{cancelled: make(map[uuid.UUID]struct{})}
}

// Cancel запрашивает отмену запуска.
func (m *Memory) Cancel(runID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled[runID] = struct{}{}
}

// IsCancelled возвращает true, если отмена была запрошена.
func (m *Memory) IsCancelled(_ context.Context, runID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cancelled[runID]
	return ok
}

// StatusSource отдаёт текущий статус запуска. Реализуется repo.RunRepo.
type StatusSource interface {
	GetRunStatus(ctx context.Context, runID uuid.UUID) (domain.RunStatus, error)
}

// Store — флаг отмены поверх статуса запуска в хранилище.
//
// API переводит запуск в CANCELLING; runner между шагами видит это
// через опрос статуса. Ошибка опроса трактуется как "не отменён":
// лучше доработать запуск, чем оборвать его из-за мигнувшей БД.
type Store struct {
	src StatusSource
	log *slog.Logger
}

// NewStore создаёт Store поверх источника статусов.
func NewStore(src StatusSource, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{src: src, log: log}
}

// IsCancelled возвращает true для запусков в CANCELLING и CANCELLED.
func (s *Store) IsCancelled(ctx context.Context, runID uuid.UUID) bool {
	status, err := s.src.GetRunStatus(ctx, runID)
	if err != nil {
		s.log.Warn("cancellation check failed", "run_id", runID, "error", err)
		return false
	}
	return status == domain.RunStatusCancelling || status == domain.RunStatusCancelled
}
