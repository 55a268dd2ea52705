package engine

import (
	"log/slog"
	"reflect"
	"strconv"
	"strings"
)

// operators — операторы сравнения в порядке проверки.
// Двухсимвольные идут первыми, иначе ">=" распался бы на ">" и "=".
var operators = []string{"==", "!=", ">=", "<=", ">", "<"}

// truthyStrings — строковые значения, считающиеся истинными.
var truthyStrings = map[string]bool{
	"true":    true,
	"yes":     true,
	"1":       true,
	"success": true,
}

// Evaluator вычисляет условия skip_if / run_only_if.
//
// Поддерживаемые формы, в порядке приоритета:
//
//	"{{user_id}} exists"        — проверка наличия
//	"{{list.urls}} empty"       — проверка пустоты ( !empty — инверсия)
//	"{{check.count}} == 0"      — сравнение (==, !=, >=, <=, >, <)
//	"{{flags.enabled}}"         — приведение значения к булеву
//
// Evaluator тотален: на любой вход он возвращает bool и никогда не
// возвращает ошибку. Любой внутренний сбой — false плюс предупреждение
// в лог: лучше выполнить шаг лишний раз, чем молча его пропустить.
type Evaluator struct {
	resolver *Resolver
	log      *slog.Logger
}

// NewEvaluator создаёт Evaluator над состоянием запуска.
func NewEvaluator(view View, log *slog.Logger) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{
		resolver: NewResolver(view),
		log:      log,
	}
}

// Evaluate вычисляет условие.
func (e *Evaluator) Evaluate(cond string) bool {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return false
	}

	// 1. Суффикс " exists": наличие значения.
	if ref, ok := strings.CutSuffix(cond, " exists"); ok {
		_, err := e.operand(strings.TrimSpace(ref))
		return err == nil
	}

	// 2. Суффиксы " empty" / " !empty": пустота значения.
	// Отсутствующее значение считается пустым.
	if ref, ok := strings.CutSuffix(cond, " !empty"); ok {
		return !e.isEmpty(strings.TrimSpace(ref))
	}
	if ref, ok := strings.CutSuffix(cond, " empty"); ok {
		return e.isEmpty(strings.TrimSpace(ref))
	}

	// 3. Первый найденный оператор разбивает условие на два операнда.
	for _, op := range operators {
		if !strings.Contains(cond, op) {
			continue
		}
		parts := strings.SplitN(cond, op, 2)
		left, err := e.operand(strings.TrimSpace(parts[0]))
		if err != nil {
			e.log.Warn("condition operand failed",
				"condition", cond, "operand", parts[0], "error", err)
			return false
		}
		right, err := e.operand(strings.TrimSpace(parts[1]))
		if err != nil {
			e.log.Warn("condition operand failed",
				"condition", cond, "operand", parts[1], "error", err)
			return false
		}
		return e.compare(cond, left, right, op)
	}

	// 4. Ни оператора, ни суффикса: всё условие — одна ссылка,
	// её значение приводится к булеву.
	val, err := e.operand(cond)
	if err != nil {
		e.log.Warn("condition failed to resolve", "condition", cond, "error", err)
		return false
	}
	return truthy(val)
}

// operand резолвит один операнд условия.
//
// Строковые литералы в кавычках возвращаются как есть; токен с {{...}}
// резолвится; остальные токены разбираются как int, затем float,
// затем bool, иначе остаются строкой.
func (e *Evaluator) operand(token string) (any, error) {
	if len(token) >= 2 {
		if (token[0] == '\'' && token[len(token)-1] == '\'') ||
			(token[0] == '"' && token[len(token)-1] == '"') {
			return token[1 : len(token)-1], nil
		}
	}

	if strings.Contains(token, "{{") {
		return e.resolver.Resolve(token)
	}

	if n, err := strconv.Atoi(token); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f, nil
	}
	if b, err := strconv.ParseBool(token); err == nil {
		return b, nil
	}
	return token, nil
}

// isEmpty резолвит операнд и проверяет пустоту.
func (e *Evaluator) isEmpty(token string) bool {
	val, err := e.operand(token)
	if err != nil {
		return true
	}
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

// compare сравнивает два операнда.
func (e *Evaluator) compare(cond string, left, right any, op string) bool {
	switch op {
	case "==":
		return equal(left, right)
	case "!=":
		return !equal(left, right)
	}

	// Упорядочивающие сравнения: только числа с числами
	// и строки со строками. Списки и карты не упорядочены.
	lf, lNum := toFloat(left)
	rf, rNum := toFloat(right)
	if lNum && rNum {
		switch op {
		case ">":
			return lf > rf
		case "<":
			return lf < rf
		case ">=":
			return lf >= rf
		case "<=":
			return lf <= rf
		}
	}

	ls, lStr := left.(string)
	rs, rStr := right.(string)
	if lStr && rStr {
		switch op {
		case ">":
			return ls > rs
		case "<":
			return ls < rs
		case ">=":
			return ls >= rs
		case "<=":
			return ls <= rs
		}
	}

	e.log.Warn("condition compares unorderable values",
		"condition", cond, "op", op, "left", left, "right", right)
	return false
}

// equal сравнивает значения на равенство.
// Числа разных типов сравниваются по значению: 0 == 0.0.
func equal(left, right any) bool {
	lf, lNum := toFloat(left)
	rf, rNum := toFloat(right)
	if lNum && rNum {
		return lf == rf
	}
	if lNum != rNum {
		// Число против строки: пробуем разобрать строку как число.
		if s, ok := left.(string); ok && rNum {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f == rf
			}
		}
		if s, ok := right.(string); ok && lNum {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return lf == f
			}
		}
		return false
	}
	// Сравнение интерфейсов напрямую паникует на несравнимых типах
	// (списки, карты), поэтому DeepEqual.
	return reflect.DeepEqual(left, right)
}

// toFloat приводит числовое значение к float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// truthy приводит значение к булеву.
//
// Булевы проходят как есть; строки сравниваются без учёта регистра
// с {"true", "yes", "1", "success"}; числа — проверка на ненулевое;
// списки и карты — проверка на непустоту.
func truthy(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		return truthyStrings[strings.ToLower(strings.TrimSpace(v))]
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		if f, ok := toFloat(val); ok {
			return f != 0
		}
		return false
	}
}
