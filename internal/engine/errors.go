package engine

import (
	"errors"
	"strings"
)

// Ошибки валидации спецификации и построения графа.
var (
	// ErrEmptySteps — job не содержит шагов.
	ErrEmptySteps = errors.New("job spec has no steps")

	// ErrEmptyStepName — шаг без имени.
	ErrEmptyStepName = errors.New("step has empty name")

	// ErrDuplicateStepName — несколько шагов с одинаковым именем.
	ErrDuplicateStepName = errors.New("duplicate step name")

	// ErrMissingDependency — шаг зависит от несуществующего шага.
	ErrMissingDependency = errors.New("step depends on non-existent step")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrMissingParam — обязательный параметр запуска не передан.
	ErrMissingParam = errors.New("missing required param")

	// ErrBadParamType — значение параметра не соответствует объявленному типу.
	ErrBadParamType = errors.New("bad param type")
)

// Ошибки резолва шаблонных ссылок.
var (
	// ErrUnknownVariable — ссылка на отсутствующую глобальную переменную.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrStepNotExecuted — ссылка на шаг, который ещё не выполнялся.
	ErrStepNotExecuted = errors.New("step has not executed")

	// ErrStepFailed — ссылка на шаг, завершившийся с ошибкой.
	ErrStepFailed = errors.New("step failed")

	// ErrBadPath — путь не проходит по структуре извлечённых данных.
	ErrBadPath = errors.New("bad data path")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	StepName string // имя шага, где произошла ошибка
	Field    string // поле, вызвавшее ошибку
	Message  string // описание ошибки
	Err      error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StepName != "" {
		return "step " + e.StepName + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(stepName, field, message string, err error) *ValidationError {
	return &ValidationError{
		StepName: stepName,
		Field:    field,
		Message:  message,
		Err:      err,
	}
}

// CycleError — цикл в графе зависимостей с конкретным путём.
//
// Path содержит имена шагов цикла; первый и последний элементы
// совпадают: ["a", "b", "a"]. Для самозависимости путь ["a", "a"].
type CycleError struct {
	Path []string
}

// Error реализует интерфейс error.
func (e *CycleError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Path, " -> ")
}

// Unwrap возвращает базовую ошибку.
func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}

// ResolveError — ошибка резолва одной шаблонной ссылки.
type ResolveError struct {
	Ref     string // ссылка внутри {{...}}
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ResolveError) Error() string {
	return "resolve {{" + e.Ref + "}}: " + e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

func newResolveError(ref, message string, err error) *ResolveError {
	return &ResolveError{Ref: ref, Message: message, Err: err}
}
