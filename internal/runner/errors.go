package runner

import "errors"

// Ошибки уровня запуска. Наружу из Execute выходят только они, ошибки
// построения графа и разрешения параметров: сбой отдельного шага
// записывается в StepResult, и запуск продолжается.
var (
	// ErrNilJob — в Execute передан nil job.
	ErrNilJob = errors.New("nil job")

	// ErrNilRun — в Execute передан nil run.
	ErrNilRun = errors.New("nil run")

	// ErrNoTarget — не удалось определить ни одной цели шага.
	ErrNoTarget = errors.New("no target")

	// ErrBlankTarget — среди целей шага оказалась пустая строка.
	ErrBlankTarget = errors.New("blank target")
)

// Ожидаемые ситуации при обработке события run.pending: сообщение
// подтверждается без повторной доставки.
var (
	// ErrRunNotFound — run из события не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotPending — run уже обрабатывается или завершён.
	ErrRunNotPending = errors.New("run is not pending")
)
