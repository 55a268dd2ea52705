// Package cli реализует инструмент командной строки Trawler.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Trawler API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления jobs, runs и schedules.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Trawler API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	jobs, err := client.ListJobs()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: trawler job list --json | jq .
//
// ## Spec files
//
// Спецификации jobs пишутся в YAML или JSON; LoadSpecFile определяет
// формат по содержимому и конвертирует YAML в JSON перед отправкой.
// Команда job validate проверяет файл на сервере, не сохраняя его.
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - job: list, create, show, update, delete, activate, deactivate, validate
//   - run: list, start, show, cancel, results, result
//   - schedule: list, create, show, update, delete, enable, disable
//
// Каждая группа создаётся через фабричную функцию (NewJobCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
