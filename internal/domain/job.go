package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job — определение извлекающего рабочего процесса.
//
// Job — это "рецепт" обхода: с какого URL начинать, какие шаги
// выполнять и что извлекать на каждом шаге. Каждый запуск (Run)
// выполняет спецификацию конкретного job.
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя job (например, "news-daily", "catalog-full").
	// Используется для удобной идентификации пользователем.
	Name string `json:"name"`

	// Spec — спецификация процесса (шаги, зависимости, настройки по умолчанию).
	Spec JobSpec `json:"spec"`

	// IsActive — флаг активности. Неактивные jobs не запускаются по расписанию.
	IsActive bool `json:"is_active"`

	// CreatedAt — время создания job.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения спецификации.
	UpdatedAt time.Time `json:"updated_at"`
}

// JobSpec — спецификация job (содержимое JSONB поля spec).
//
// Это "программа" для Trawler — список шагов извлечения с зависимостями.
type JobSpec struct {
	// Version — версия формата спецификации (для обратной совместимости).
	Version string `json:"version,omitempty"`

	// Name — имя job (дублирует Job.Name для удобства).
	Name string `json:"name,omitempty"`

	// Description — описание назначения job.
	Description string `json:"description,omitempty"`

	// BaseURL — базовый адрес сайта. Попадает в глобальные переменные
	// запуска и служит целью по умолчанию для шагов без input_from.
	BaseURL string `json:"base_url,omitempty"`

	// Params — входные параметры запуска.
	// Ключ — имя параметра, значение — его определение.
	Params map[string]ParamDef `json:"params,omitempty"`

	// Config — глобальная конфигурация, общая для всех шагов.
	// Шаговый config накладывается поверх неё (шаг побеждает).
	Config map[string]any `json:"config,omitempty"`

	// Defaults — настройки по умолчанию для всех шагов.
	Defaults *StepDefaults `json:"defaults,omitempty"`

	// Steps — список шагов для выполнения.
	Steps []StepDef `json:"steps"`
}

// ParamDef — определение входного параметра запуска.
type ParamDef struct {
	// Type — тип параметра: "string", "number", "boolean", "object", "list".
	Type string `json:"type"`

	// Required — обязательный ли параметр.
	Required bool `json:"required,omitempty"`

	// Default — значение по умолчанию.
	Default any `json:"default,omitempty"`

	// Description — описание параметра.
	Description string `json:"description,omitempty"`
}

// StepDefaults — настройки по умолчанию для шагов.
type StepDefaults struct {
	// Retry — политика повторных попыток.
	Retry *RetryPolicy `json:"retry,omitempty"`

	// TimeoutSec — таймаут выполнения шага в секундах.
	TimeoutSec int `json:"timeout_sec,omitempty"`

	// BatchSize — размер пачки при параллельном обходе списка целей.
	BatchSize int `json:"batch_size,omitempty"`
}

// StepDef — определение шага извлечения.
//
// Шаг неизменяем на протяжении запуска: runner читает определение,
// но никогда его не модифицирует.
type StepDef struct {
	// Name — уникальное имя шага в рамках job.
	// Используется в input_from и в ссылках вида {{name.field}}.
	Name string `json:"name"`

	// Type — тип шага: "crawl", "scrape" или пусто для одиночных запросов.
	// Для пустого типа стратегия выбирается по Method.
	Type string `json:"type,omitempty"`

	// Method — метод получения: "http", "api", "browser".
	// Учитывается, когда Type не задаёт стратегию (обратная совместимость).
	Method string `json:"method,omitempty"`

	// Config — конфигурация шага (заголовки, пагинация, селектор ожидания...).
	// Строковые значения могут содержать шаблоны {{...}}.
	Config map[string]any `json:"config,omitempty"`

	// Selectors — поля для извлечения: имя поля → спецификация.
	Selectors map[string]FieldSpec `json:"selectors,omitempty"`

	// FieldSpecs — устаревший синоним Selectors (старый формат спецификаций).
	FieldSpecs map[string]FieldSpec `json:"field_specs,omitempty"`

	// InputFrom — источник целевых URL: "step" или "step.path.to.urls".
	// Задаёт зависимость от другого шага.
	InputFrom string `json:"input_from,omitempty"`

	// SkipIf — условие пропуска шага.
	// Например: "{{check.count}} == 0"
	SkipIf string `json:"skip_if,omitempty"`

	// RunOnlyIf — условие выполнения шага (инверсия SkipIf).
	RunOnlyIf string `json:"run_only_if,omitempty"`

	// Retry — политика повторных попыток для этого шага.
	// Переопределяет defaults.retry.
	Retry *RetryPolicy `json:"retry,omitempty"`

	// TimeoutSec — таймаут для этого шага.
	// Переопределяет defaults.timeout_sec.
	TimeoutSec int `json:"timeout_sec,omitempty"`
}

// Fields возвращает спецификации извлечения шага.
// Selectors имеет приоритет над устаревшим FieldSpecs.
func (s *StepDef) Fields() map[string]FieldSpec {
	if len(s.Selectors) > 0 {
		return s.Selectors
	}
	return s.FieldSpecs
}

// RetryPolicy — политика повторных попыток.
type RetryPolicy struct {
	// MaxAttempts — максимальное количество попыток (включая первую).
	MaxAttempts int `json:"max_attempts,omitempty"`

	// Backoff — стратегия задержки: "fixed", "linear", "exponential".
	Backoff string `json:"backoff,omitempty"`

	// InitialDelayMs — начальная задержка в миллисекундах.
	InitialDelayMs int `json:"initial_delay_ms,omitempty"`

	// MaxDelayMs — максимальная задержка в миллисекундах.
	MaxDelayMs int `json:"max_delay_ms,omitempty"`

	// Multiplier — множитель экспоненциальной стратегии.
	// По умолчанию 2.0.
	Multiplier float64 `json:"multiplier,omitempty"`

	// Jitter — доля случайного разброса задержки, 0..1.
	// Например, 0.2 — задержка умножается на случайный коэффициент [0.8, 1.2].
	Jitter float64 `json:"jitter,omitempty"`
}
