package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//	PENDING|RUNNING → CANCELLING → CANCELLED
type RunStatus string

const (
	// RunStatusPending — run создан и поставлен в очередь.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusCancelling — запрошена отмена; runner остановится
	// на ближайшей границе между шагами.
	RunStatusCancelling RunStatus = "CANCELLING"

	// RunStatusSucceeded — run успешно завершён.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — run завершился с ошибкой.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusCancelled — run остановлен по запросу отмены.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// CancelRequested возвращает true, если отмена запрошена или уже состоялась.
func (s RunStatus) CancelRequested() bool {
	return s == RunStatusCancelling || s == RunStatusCancelled
}

// StepStatus — терминальное состояние одного шага внутри run.
//
// Шаг всегда заканчивается в одном из четырёх состояний;
// промежуточное PENDING существует только до записи результата.
type StepStatus string

const (
	// StepStatusPending — результат шага ещё не записан.
	StepStatusPending StepStatus = "PENDING"

	// StepStatusSkipped — шаг пропущен по условию.
	StepStatusSkipped StepStatus = "SKIPPED"

	// StepStatusTimedOut — шаг прерван по таймауту.
	StepStatusTimedOut StepStatus = "TIMED_OUT"

	// StepStatusSucceeded — шаг выполнен успешно.
	StepStatusSucceeded StepStatus = "SUCCEEDED"

	// StepStatusFailed — шаг завершился с ошибкой.
	StepStatusFailed StepStatus = "FAILED"
)

// String возвращает строковое представление StepStatus.
func (s StepStatus) String() string {
	return string(s)
}
