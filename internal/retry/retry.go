package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Trawler/internal/domain"
)

// AttemptFunc выполняет одну попытку получения.
// Возвращает HTTP-статус ответа (0, если статуса нет) и ошибку транспорта.
type AttemptFunc func(ctx context.Context) (statusCode int, err error)

// Do выполняет fn с повторами по политике policy.
//
// Цикл: попытка → классификация исхода → остановка на успехе или
// неповторяемой категории → пауза с backoff → следующая попытка,
// пока попытки не исчерпаны. Возвращается число сделанных попыток
// и ошибка последней попытки.
//
// Ошибка может быть nil и при неудаче: если сбой выражен HTTP-статусом
// (например 404), он остаётся в результате последней попытки у
// вызывающего — Do не придумывает новых ошибок поверх последней.
// Отмена контекста во время паузы тоже возвращает последнюю ошибку.
func Do(ctx context.Context, policy *domain.RetryPolicy, log *slog.Logger, fn AttemptFunc) (int, error) {
	if log == nil {
		log = slog.Default()
	}

	maxAttempts := 1
	if policy != nil && policy.MaxAttempts > 0 {
		maxAttempts = policy.MaxAttempts
	}

	var lastStatus int
	var lastErr error

	for attempt := 1; ; attempt++ {
		lastStatus, lastErr = fn(ctx)

		// Успех: транспорт отработал и статус не ошибочный.
		if lastErr == nil && lastStatus < 400 {
			return attempt, nil
		}

		category := ClassifyOutcome(lastStatus, lastErr)
		if !category.Retryable() || attempt >= maxAttempts {
			return attempt, lastErr
		}

		delay := Backoff(policy, attempt)
		log.Debug("retrying fetch",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"category", category,
			"status", lastStatus,
			"delay", delay,
			"error", lastErr)

		select {
		case <-ctx.Done():
			log.Debug("retry interrupted by context", "attempt", attempt)
			return attempt, lastErr
		case <-time.After(delay):
		}
	}
}
