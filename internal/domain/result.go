package domain

// Ключи метаданных StepResult, которые записывает runner.
const (
	// MetaSkipped — шаг пропущен по условию skip_if/run_only_if.
	MetaSkipped = "skipped"

	// MetaSkipReason — условие, из-за которого шаг пропущен.
	MetaSkipReason = "skip_reason"

	// MetaTimeout — шаг прерван по таймауту.
	MetaTimeout = "timeout"

	// MetaTimeoutSec — настроенный таймаут шага в секундах.
	MetaTimeoutSec = "timeout_sec"

	// MetaDurationMs — фактическое время выполнения шага в миллисекундах.
	MetaDurationMs = "duration_ms"

	// MetaErrors — список ошибок отдельных целей при частичном сбое.
	MetaErrors = "errors"

	// MetaTargets — количество целевых URL шага.
	MetaTargets = "targets"

	// MetaAttempts — количество фактически сделанных попыток.
	MetaAttempts = "attempts"

	// MetaContentHash — отпечаток содержимого для дедупликации.
	MetaContentHash = "content_hash"

	// MetaDuplicate — содержимое совпало с уже виденным в этом запуске.
	MetaDuplicate = "duplicate"
)

// StepResult — итог выполнения одного шага.
//
// Создаётся runner'ом после завершения шага (в том числе пропуска,
// таймаута или сбоя) и записывается в контекст выполнения. Успешность
// не хранится отдельно — она выводится из Error и StatusCode.
type StepResult struct {
	// StepName — имя шага из спецификации.
	StepName string `json:"step_name"`

	// StatusCode — HTTP-статус ответа. 0 — статуса нет
	// (шаг пропущен, упал до запроса или стратегия его не сообщает).
	StatusCode int `json:"status_code,omitempty"`

	// Content — сырое содержимое ответа (HTML либо тело API-ответа).
	Content string `json:"content,omitempty"`

	// ExtractedData — извлечённые поля: имя поля → значение или список значений.
	ExtractedData map[string]any `json:"extracted_data,omitempty"`

	// Metadata — служебные данные шага (тайминги, флаги, ошибки целей).
	Metadata map[string]any `json:"metadata,omitempty"`

	// Error — текст ошибки. Пусто — ошибки не было.
	Error string `json:"error,omitempty"`
}

// Success выводит успешность шага:
// ошибки нет И (статус не задан ИЛИ статус в диапазоне 2xx).
func (r *StepResult) Success() bool {
	if r.Error != "" {
		return false
	}
	if r.StatusCode == 0 {
		return true
	}
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Skipped возвращает true, если шаг был пропущен по условию.
func (r *StepResult) Skipped() bool {
	v, ok := r.Metadata[MetaSkipped].(bool)
	return ok && v
}

// TimedOut возвращает true, если шаг прерван по таймауту.
func (r *StepResult) TimedOut() bool {
	v, ok := r.Metadata[MetaTimeout].(bool)
	return ok && v
}

// Duplicate возвращает true, если содержимое шага совпало по отпечатку
// с более ранним шагом того же запуска.
func (r *StepResult) Duplicate() bool {
	v, ok := r.Metadata[MetaDuplicate].(bool)
	return ok && v
}

// Status возвращает терминальное состояние шага.
func (r *StepResult) Status() StepStatus {
	switch {
	case r.Skipped():
		return StepStatusSkipped
	case r.TimedOut():
		return StepStatusTimedOut
	case r.Success():
		return StepStatusSucceeded
	default:
		return StepStatusFailed
	}
}

// SetMeta записывает ключ метаданных, создавая карту при необходимости.
func (r *StepResult) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// NewSkippedResult создаёт результат пропущенного шага.
// Пропуск — не ошибка: Success() такого результата возвращает true.
func NewSkippedResult(stepName, condition string) *StepResult {
	return &StepResult{
		StepName: stepName,
		Metadata: map[string]any{
			MetaSkipped:    true,
			MetaSkipReason: condition,
		},
	}
}

// NewFailedResult создаёт результат шага, упавшего до обращения к стратегии
// (пустая цель, ошибка резолва конфигурации, паника).
func NewFailedResult(stepName, errText string) *StepResult {
	return &StepResult{
		StepName: stepName,
		Metadata: map[string]any{},
		Error:    errText,
	}
}
