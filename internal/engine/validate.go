package engine

import (
	"fmt"

	"github.com/shaiso/Trawler/internal/domain"
)

// ValidateSpec выполняет полную валидацию JobSpec.
//
// Вызывается на границе API до сохранения job, чтобы заведомо
// невыполнимая спецификация не попала в очередь:
// - наличие шагов, непустота и уникальность имён;
// - известность метода получения каждого шага;
// - разумность политик повторов;
// - разрешимость зависимостей и отсутствие циклов (делегируется графу).
func ValidateSpec(spec *domain.JobSpec) error {
	if spec == nil || len(spec.Steps) == 0 {
		return ErrEmptySteps
	}

	for i := range spec.Steps {
		if err := validateStep(&spec.Steps[i]); err != nil {
			return err
		}
	}

	if spec.Defaults != nil && spec.Defaults.Retry != nil {
		if err := validateRetry("", spec.Defaults.Retry); err != nil {
			return err
		}
	}

	// Граф проверяет дубликаты, битые input_from и циклы.
	if _, err := BuildGraph(spec.Steps); err != nil {
		return err
	}

	return nil
}

// validateStep валидирует один шаг.
func validateStep(step *domain.StepDef) error {
	if step.Name == "" {
		return NewValidationError("", "name", "step has empty name", ErrEmptyStepName)
	}

	if _, err := domain.ResolveMethod(step.Type, step.Method); err != nil {
		return NewValidationError(step.Name, "type", err.Error(), err)
	}

	if step.TimeoutSec < 0 {
		return NewValidationError(step.Name, "timeout_sec",
			fmt.Sprintf("negative timeout: %d", step.TimeoutSec), nil)
	}

	if step.Retry != nil {
		if err := validateRetry(step.Name, step.Retry); err != nil {
			return err
		}
	}

	return nil
}

// validateRetry проверяет политику повторов.
func validateRetry(stepName string, p *domain.RetryPolicy) error {
	if p.MaxAttempts < 0 {
		return NewValidationError(stepName, "retry.max_attempts",
			fmt.Sprintf("negative max_attempts: %d", p.MaxAttempts), nil)
	}

	switch p.Backoff {
	case "", "fixed", "linear", "exponential":
	default:
		return NewValidationError(stepName, "retry.backoff",
			fmt.Sprintf("unknown backoff strategy %q", p.Backoff), nil)
	}

	if p.InitialDelayMs < 0 || p.MaxDelayMs < 0 {
		return NewValidationError(stepName, "retry",
			"negative delay", nil)
	}

	if p.Jitter < 0 || p.Jitter >= 1 {
		return NewValidationError(stepName, "retry.jitter",
			fmt.Sprintf("jitter out of range [0, 1): %v", p.Jitter), nil)
	}

	return nil
}
