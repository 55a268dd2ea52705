// Package engine содержит ядро выполнения job: понимание структуры
// спецификации и вычисления над состоянием запуска.
//
// Включает:
//   - validate.go  — валидация JobSpec на границе API
//   - params.go    — сверка входных параметров запуска с объявлениями
//   - graph.go     — вывод зависимостей из спецификации, Kahn, поиск циклов
//   - template.go  — резолв ссылок {{var}} и {{step.field.path}}
//   - condition.go — вычисление условий skip_if / run_only_if
//   - context.go   — состояние одного запуска (переменные, результаты)
//
// Пакет не знает про стратегии получения и очереди: он отвечает только
// за порядок шагов и подстановку данных между ними.
package engine
