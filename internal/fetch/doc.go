// Package fetch содержит стратегии получения содержимого для шагов job.
//
// # Обзор
//
// Стратегия отвечает на вопрос «как достать страницу»: простым HTTP,
// запросом к API, через headless-браузер, обходом пагинации или
// параллельным проходом по списку URL. Каждая стратегия:
//   - Получает цели и конфигурацию шага (уже после подстановки шаблонов)
//   - Достаёт содержимое и извлекает поля по selectors
//   - Возвращает единый Result
//
// # Интерфейс Strategy
//
// Все стратегии реализуют интерфейс Strategy:
//
//	type Strategy interface {
//	    Execute(ctx context.Context, targets []string, cfg map[string]any, fields map[string]domain.FieldSpec) (*Result, error)
//	    SupportsBatch() bool
//	    Cleanup()
//	}
//
// Разделение ошибок то же, что и во всём проекте: инфраструктурный
// сбой (не собрался запрос, нет браузера, отменён контекст) — через
// error; логический провал (HTTP >= 400, не извлеклись поля) — внутри
// Result.Error при nil error.
//
// SupportsBatch отличает пакетные стратегии: crawl и scrape сами
// принимают весь список целей и сворачивают результаты через
// Aggregate, для остальных runner выполняет по вызову на цель.
//
// # Registry и Factory
//
// Registry выдаёт стратегию по domain.Method:
//
//	factory := fetch.NewFactory(client, browsers, log)
//	reg := factory.NewRegistry()         // http, api, browser, crawl, scrape
//	strat, err := reg.Get(domain.MethodScrape)
//
// Реестр создаётся на каждый запуск; в конце запуска runner один раз
// вызывает reg.CleanupAll(). Тяжёлые ресурсы — HTTP-клиент с
// ограничением частоты по хостам (Client) и пул вкладок браузера
// (BrowserPool) — живут на уровне процесса и разделяются фабрикой.
//
// # Стратегии
//
// ## HTTP (http.go)
//
// Одна страница одним GET-запросом, поля по CSS-селекторам.
//
// ## API (api.go)
//
// Запрос к JSON API: метод, заголовки, тело из конфигурации; поля по
// точечным путям json_path. Без selectors разобранное тело ответа
// кладётся в поле "body".
//
// ## Browser (browser.go, pool.go)
//
// Страница рендерится вкладкой headless-браузера; поля снимаются с
// готового DOM. Число одновременно открытых вкладок ограничено пулом.
//
// ## Crawl (crawl.go, paginate.go)
//
// Обход многостраничного списка: режимы пагинации query (?page=N),
// path (шаблон с {page}) и next_link (по ссылке «дальше»). Страницы
// query/path обходятся пачками параллельно, next_link — последовательно.
//
// ## Scrape (scrape.go)
//
// Параллельный проход по готовому списку URL пачками ForEachBatch:
// вся пачка стартует одновременно и ожидается целиком.
//
// # Свёртка результатов
//
// Aggregate (aggregate.go) сворачивает результаты по целям в один:
// успех при хотя бы одной успешной цели, одноимённые поля успешных
// целей конкатенируются в списки, ошибки отдельных целей попадают в
// Metadata["errors"]. Тот же закон применяет runner при обходе целей
// одиночных стратегий.
package fetch
