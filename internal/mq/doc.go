// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - run.pending    — новый run ожидает выполнения
//   - run.completed  — run завершён (событие для внешних потребителей)
//
// Exchanges:
//   - trawler.runs — события runs
//   - trawler.dlq  — dead letter queue
//
// runs.pending — приоритетная очередь (x-max-priority): срочные повторные
// обходы обгоняют плановые, непригодные сообщения уходят в dlq.runs.
package mq
