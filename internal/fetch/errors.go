package fetch

import "errors"

// Ошибки получения содержимого.
var (
	// ErrUnknownMethod — нет стратегии для данного метода получения.
	ErrUnknownMethod = errors.New("unknown fetch method")

	// ErrNoTargets — вызов стратегии без единой цели.
	ErrNoTargets = errors.New("no targets to fetch")

	// ErrNoBrowser — пул браузеров не сконфигурирован.
	ErrNoBrowser = errors.New("browser pool is not configured")

	// ErrBadTarget — цель не является корректным абсолютным URL.
	ErrBadTarget = errors.New("invalid target url")

	// ErrHTTPRequest — HTTP-запрос не удалось выполнить.
	ErrHTTPRequest = errors.New("http request failed")
)
