package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
)

// Category — категория ошибки получения.
//
// Категория определяет, имеет ли смысл повторная попытка:
// временные сбои (сеть, таймауты, 5xx, rate limit) повторяются,
// ошибки клиента и неизвестные — нет.
type Category string

const (
	// CategoryNetwork — сетевой сбой: отказ соединения, обрыв, DNS.
	CategoryNetwork Category = "network"

	// CategoryTimeout — превышено время ожидания ответа.
	CategoryTimeout Category = "timeout"

	// CategoryServerError — 5xx от сервера (кроме 503).
	CategoryServerError Category = "server_error"

	// CategoryRateLimit — 429, сервер просит сбавить темп.
	CategoryRateLimit Category = "rate_limit"

	// CategoryResourceUnavailable — 503, сервис временно недоступен.
	CategoryResourceUnavailable Category = "resource_unavailable"

	// CategoryClientError — 4xx кроме 429: повторять бессмысленно.
	CategoryClientError Category = "client_error"

	// CategoryUnknown — не удалось классифицировать.
	CategoryUnknown Category = "unknown"
)

// Retryable возвращает true, если ошибки этой категории
// стоит повторять.
func (c Category) Retryable() bool {
	switch c {
	case CategoryNetwork, CategoryTimeout, CategoryServerError,
		CategoryRateLimit, CategoryResourceUnavailable:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление Category.
func (c Category) String() string {
	return string(c)
}

// ClassifyStatus классифицирует HTTP-статус ответа.
//
// Успешные и редиректные статусы дают CategoryUnknown: классификатор
// вызывается только для неудачных исходов, и такой статус означает,
// что причина неудачи не в нём.
func ClassifyStatus(code int) Category {
	switch {
	case code == http.StatusTooManyRequests:
		return CategoryRateLimit
	case code == http.StatusServiceUnavailable:
		return CategoryResourceUnavailable
	case code >= 500:
		return CategoryServerError
	case code >= 400:
		return CategoryClientError
	default:
		return CategoryUnknown
	}
}

// ClassifyError классифицирует ошибку выполнения запроса.
func ClassifyError(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return CategoryTimeout
	}

	// net.Error покрывает url.Error, net.OpError и DNS-ошибки.
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return CategoryTimeout
		}
		return CategoryNetwork
	}

	return CategoryUnknown
}

// ClassifyOutcome классифицирует исход одной попытки получения.
// Ошибка транспорта важнее статуса: при err != nil статус не смотрим.
func ClassifyOutcome(statusCode int, err error) Category {
	if err != nil {
		return ClassifyError(err)
	}
	return ClassifyStatus(statusCode)
}
