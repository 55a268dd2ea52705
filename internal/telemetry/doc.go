// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — интерфейс Sink и его реализации: PromSink
//     (Prometheus) и NopSink (тесты, урезанные конфигурации)
//
// Все сервисы используют единый формат логирования и экспортируют
// метрики на /metrics endpoint. Код выполнения получает Sink явно
// через конфигурацию — глобальных счётчиков в нём нет.
package telemetry
