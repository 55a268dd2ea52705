package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — экземпляр выполнения job.
//
// Run создаётся когда:
// - Пользователь запускает job вручную (через API/CLI)
// - Scheduler создаёт run по расписанию
//
// Один run проходит весь список шагов job последовательно.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// JobID — ссылка на job, который выполняется.
	JobID uuid.UUID `json:"job_id"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Params — входные параметры, переданные при запуске.
	// Соответствуют JobSpec.Params и попадают в глобальные переменные.
	Params map[string]any `json:"params,omitempty"`

	// Priority — приоритет в очереди запусков, 0..9.
	// Запуски с большим приоритетом забираются из очереди раньше.
	Priority int `json:"priority,omitempty"`

	// StartedAt — время начала выполнения (когда статус стал RUNNING).
	// Nil, если run ещё не начался.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успешного или с ошибкой).
	// Nil, если run ещё выполняется.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// IdempotencyKey — ключ идемпотентности для предотвращения дубликатов.
	// Например, для scheduled runs: "{schedule_id}_{next_due_at}"
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
}

// RequestCancel переводит run в статус CANCELLING.
// Разрешено только из PENDING и RUNNING; из других статусов — no-op.
func (r *Run) RequestCancel() bool {
	if r.Status != RunStatusPending && r.Status != RunStatusRunning {
		return false
	}
	r.Status = RunStatusCancelling
	return true
}

// MarkCancelled переводит run в статус CANCELLED.
func (r *Run) MarkCancelled() {
	now := time.Now()
	r.Status = RunStatusCancelled
	r.FinishedAt = &now
}
