// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, publisher, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - job_handler.go      — обработчики для /jobs (включая валидацию спецификаций)
//   - run_handler.go      — обработчики для /runs и результатов шагов
//   - schedule_handler.go — обработчики для /schedules
//
// API предоставляет REST endpoints для управления jobs, runs и schedules.
// Спецификация job валидируется до сохранения; создание run ставит его
// в очередь runs.pending с приоритетом.
package api
