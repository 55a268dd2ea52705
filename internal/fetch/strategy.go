package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Trawler/internal/domain"
)

// Strategy — интерфейс получения содержимого одним из способов
// закрытого набора domain.Method.
//
// Контракт:
//   - Execute безопасен для конкурентных вызовов: один экземпляр
//     стратегии разделяется всеми целями шага при параллельном обходе.
//   - Инфраструктурные сбои (не удалось собрать запрос, нет браузера)
//     возвращаются через error; логические (HTTP >= 400, не извлеклись
//     поля) — внутри Result.Error при nil error.
//   - Cleanup освобождает ресурсы стратегии и идемпотентен: runner
//     вызывает его ровно один раз в конце запуска независимо от исхода.
type Strategy interface {
	Execute(ctx context.Context, targets []string, cfg map[string]any, fields map[string]domain.FieldSpec) (*Result, error)

	// SupportsBatch — стратегия сама обрабатывает весь список целей.
	// Для остальных runner выполняет по вызову на цель.
	SupportsBatch() bool

	Cleanup()
}

// Result — результат одного вызова стратегии.
//
// Для пакетных стратегий (crawl, scrape) один Result сворачивает
// все цели; для одиночных — одну цель, а сворачивает уже runner.
type Result struct {
	// Success — исход вызова.
	Success bool

	// StatusCode — HTTP-статус ответа. 0 — статуса нет.
	StatusCode int

	// Content — сырое содержимое (HTML либо тело API-ответа).
	Content string

	// ExtractedData — извлечённые поля: имя поля → значение или список.
	ExtractedData map[string]any

	// Metadata — служебные данные вызова (url, отпечаток содержимого...).
	Metadata map[string]any

	// Error — логическая ошибка вызова. Пусто — ошибки не было.
	Error string
}

// Ключи метаданных Result.
const (
	metaURL      = "url"
	metaFinalURL = "final_url"
	metaPages    = "pages"
)

// failedResult создаёт неуспешный Result с текстом ошибки.
func failedResult(format string, args ...any) *Result {
	return &Result{
		Error:    fmt.Sprintf(format, args...),
		Metadata: map[string]any{},
	}
}

// Registry — реестр стратегий по методу получения.
//
// Реестр создаётся на каждый запуск: стратегии разделяют тяжёлые
// ресурсы процесса (HTTP-клиент, пул браузеров), но их Cleanup
// привязан к жизни одного запуска.
type Registry struct {
	strategies map[domain.Method]Strategy
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[domain.Method]Strategy)}
}

// Register добавляет стратегию для метода.
func (r *Registry) Register(m domain.Method, s Strategy) {
	r.strategies[m] = s
}

// Get возвращает стратегию для метода.
func (r *Registry) Get(m domain.Method) (Strategy, error) {
	s, ok := r.strategies[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, m)
	}
	return s, nil
}

// CleanupAll вызывает Cleanup каждой стратегии.
func (r *Registry) CleanupAll() {
	for _, s := range r.strategies {
		s.Cleanup()
	}
}

// Factory собирает реестры стратегий поверх разделяемых ресурсов.
type Factory struct {
	client   *Client
	browsers *BrowserPool
	log      *slog.Logger
}

// NewFactory создаёт фабрику реестров.
// browsers может быть nil: тогда browser-шаги будут завершаться ошибкой.
func NewFactory(client *Client, browsers *BrowserPool, log *slog.Logger) *Factory {
	if log == nil {
		log = slog.Default()
	}
	return &Factory{client: client, browsers: browsers, log: log}
}

// NewRegistry создаёт реестр со всеми пятью стратегиями.
func (f *Factory) NewRegistry() *Registry {
	r := NewRegistry()
	r.Register(domain.MethodHTTP, &HTTPStrategy{client: f.client, log: f.log})
	r.Register(domain.MethodAPI, &APIStrategy{client: f.client, log: f.log})
	r.Register(domain.MethodBrowser, &BrowserStrategy{pool: f.browsers, log: f.log})
	r.Register(domain.MethodCrawl, &CrawlStrategy{client: f.client, log: f.log})
	r.Register(domain.MethodScrape, &ScrapeStrategy{client: f.client, log: f.log})
	return r
}
