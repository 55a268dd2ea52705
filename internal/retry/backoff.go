package retry

import (
	"math/rand"
	"time"

	"github.com/shaiso/Trawler/internal/domain"
)

// Задержки по умолчанию, когда политика их не задаёт.
const (
	defaultInitialDelay = time.Second
	defaultMaxDelay     = 30 * time.Second
	defaultMultiplier   = 2.0
)

// Backoff вычисляет задержку перед попыткой attempt+1.
//
// Стратегии:
//
//	fixed       — постоянная задержка
//	linear      — задержка × номер попытки
//	exponential — задержка × multiplier^(attempt-1)
//
// Результат ограничивается max_delay_ms, после чего применяется jitter:
// умножение на случайный коэффициент из [1-j, 1+j], чтобы повторы
// разных запусков не били в сервер синхронно.
func Backoff(policy *domain.RetryPolicy, attempt int) time.Duration {
	if policy == nil {
		return defaultInitialDelay
	}
	if attempt < 1 {
		attempt = 1
	}

	initial := time.Duration(policy.InitialDelayMs) * time.Millisecond
	if initial <= 0 {
		initial = defaultInitialDelay
	}

	max := time.Duration(policy.MaxDelayMs) * time.Millisecond
	if max <= 0 {
		max = defaultMaxDelay
	}

	multiplier := policy.Multiplier
	if multiplier <= 1 {
		multiplier = defaultMultiplier
	}

	var delay time.Duration
	switch policy.Backoff {
	case "linear":
		delay = initial * time.Duration(attempt)

	case "exponential":
		delay = initial
		for i := 1; i < attempt; i++ {
			delay = time.Duration(float64(delay) * multiplier)
			if delay > max {
				break
			}
		}

	default:
		// "fixed" или пустая стратегия.
		delay = initial
	}

	if delay > max {
		delay = max
	}

	if policy.Jitter > 0 {
		factor := 1 - policy.Jitter + rand.Float64()*2*policy.Jitter
		delay = time.Duration(float64(delay) * factor)
	}

	return delay
}
