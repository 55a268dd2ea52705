package engine

import (
	"sort"

	"github.com/shaiso/Trawler/internal/domain"
)

// Ключи метаданных уровня запуска.
const (
	// MetaCancelled — запуск остановлен по запросу отмены.
	MetaCancelled = "cancelled"
)

// View — доступ на чтение к состоянию запуска.
//
// Resolver и Evaluator работают только через View: мутация контекста —
// исключительное право runner'а.
type View interface {
	// Variable возвращает глобальную переменную по имени.
	Variable(name string) (any, bool)

	// VariableNames возвращает отсортированный список имён переменных.
	// Используется в сообщениях об ошибках.
	VariableNames() []string

	// Result возвращает записанный результат шага.
	Result(stepName string) (*domain.StepResult, bool)

	// StepOutput возвращает извлечённые данные шага, если шаг
	// выполнился успешно; иначе пустую карту. Никогда не ошибается.
	StepOutput(stepName string) map[string]any
}

// Context — состояние одного запуска job.
//
// Контекст создаётся в начале запуска, живёт в памяти и принадлежит
// ровно одному runner'у: все мутаторы (AddResult, SetVariable, SetMeta)
// вызываются последовательно между шагами, конкурентного доступа нет.
// Сохранение результатов наружу — забота вызывающего кода.
type Context struct {
	variables map[string]any
	results   map[string]*domain.StepResult

	// resultOrder — имена шагов в порядке первой записи результата.
	// Нужен для стабильного обхода results.
	resultOrder []string

	// executionOrder — фактический порядок выполнения. В отличие от
	// resultOrder допускает дубликаты при повторном выполнении шага.
	executionOrder []string

	metadata map[string]any
}

// NewContext создаёт контекст запуска.
//
// Глобальные переменные заполняются базовым URL job (ключ "base_url",
// если он задан) и входными параметрами запуска.
func NewContext(baseURL string, params map[string]any) *Context {
	c := &Context{
		variables: make(map[string]any, len(params)+1),
		results:   make(map[string]*domain.StepResult),
		metadata:  make(map[string]any),
	}
	if baseURL != "" {
		c.variables["base_url"] = baseURL
	}
	for k, v := range params {
		c.variables[k] = v
	}
	return c
}

// AddResult записывает результат шага.
//
// Повторная запись того же шага перезаписывает результат, но в
// executionOrder имя добавляется ещё раз: журнал порядка append-only.
func (c *Context) AddResult(res *domain.StepResult) {
	if res == nil || res.StepName == "" {
		return
	}
	if _, seen := c.results[res.StepName]; !seen {
		c.resultOrder = append(c.resultOrder, res.StepName)
	}
	c.results[res.StepName] = res
	c.executionOrder = append(c.executionOrder, res.StepName)
}

// SetVariable устанавливает глобальную переменную.
func (c *Context) SetVariable(name string, value any) {
	c.variables[name] = value
}

// SetMeta устанавливает метаданные уровня запуска.
func (c *Context) SetMeta(key string, value any) {
	c.metadata[key] = value
}

// MarkCancelled помечает запуск отменённым.
func (c *Context) MarkCancelled() {
	c.metadata[MetaCancelled] = true
}

// Cancelled возвращает true, если запуск был отменён.
func (c *Context) Cancelled() bool {
	v, ok := c.metadata[MetaCancelled].(bool)
	return ok && v
}

// Variable возвращает глобальную переменную по имени.
func (c *Context) Variable(name string) (any, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// VariableNames возвращает отсортированный список имён переменных.
func (c *Context) VariableNames() []string {
	names := make([]string, 0, len(c.variables))
	for name := range c.variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result возвращает записанный результат шага.
func (c *Context) Result(stepName string) (*domain.StepResult, bool) {
	res, ok := c.results[stepName]
	return res, ok
}

// HasResult возвращает true, если шаг уже записал результат.
func (c *Context) HasResult(stepName string) bool {
	_, ok := c.results[stepName]
	return ok
}

// StepOutput возвращает извлечённые данные шага.
//
// Данные отдаются только для успешно завершённого шага; для
// отсутствующего или упавшего шага возвращается пустая карта.
// Вызывающим, которым нужна строгая семантика, следует проверять
// Result и Success явно.
func (c *Context) StepOutput(stepName string) map[string]any {
	res, ok := c.results[stepName]
	if !ok || !res.Success() {
		return map[string]any{}
	}
	if res.ExtractedData == nil {
		return map[string]any{}
	}
	return res.ExtractedData
}

// Results возвращает результаты в порядке первой записи.
func (c *Context) Results() []*domain.StepResult {
	out := make([]*domain.StepResult, 0, len(c.resultOrder))
	for _, name := range c.resultOrder {
		out = append(out, c.results[name])
	}
	return out
}

// ResultCount возвращает количество записанных результатов.
func (c *Context) ResultCount() int {
	return len(c.results)
}

// ExecutionOrder возвращает копию журнала фактического порядка выполнения.
func (c *Context) ExecutionOrder() []string {
	out := make([]string, len(c.executionOrder))
	copy(out, c.executionOrder)
	return out
}

// Metadata возвращает метаданные уровня запуска.
func (c *Context) Metadata() map[string]any {
	return c.metadata
}

// FailedSteps возвращает имена шагов, завершившихся неуспешно,
// в порядке первой записи.
func (c *Context) FailedSteps() []string {
	var failed []string
	for _, name := range c.resultOrder {
		if !c.results[name].Success() {
			failed = append(failed, name)
		}
	}
	return failed
}

// SuccessfulSteps возвращает имена успешных шагов в порядке первой записи.
func (c *Context) SuccessfulSteps() []string {
	var ok []string
	for _, name := range c.resultOrder {
		if c.results[name].Success() {
			ok = append(ok, name)
		}
	}
	return ok
}
