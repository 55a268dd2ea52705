package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// refPattern — вхождение шаблонной ссылки {{ reference }}.
var refPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// extractRefs возвращает все ссылки внутри {{...}} в строке.
func extractRefs(s string) []string {
	if !strings.Contains(s, "{{") {
		return nil
	}
	matches := refPattern.FindAllStringSubmatch(s, -1)
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, m[1])
	}
	return refs
}

// Resolver подставляет значения в шаблонные строки.
//
// Грамматика ссылок:
//
//	{{page}}           — глобальная переменная
//	{{list.urls}}      — поле urls из данных шага list
//	{{list.items.0.id} — навигация по вложенным спискам и картам
//
// Числовой сегмент пути индексирует список, нечисловой — ключ карты.
// Resolver работает поверх View и никогда не мутирует состояние запуска.
type Resolver struct {
	view View
}

// NewResolver создаёт Resolver над состоянием запуска.
func NewResolver(view View) *Resolver {
	return &Resolver{view: view}
}

// Resolve подставляет ссылки в строковый шаблон.
//
// Строка без {{ возвращается без изменений, поэтому повторный резолв
// уже срезолвленной строки безопасен. Шаблон, целиком состоящий из
// одной ссылки, возвращает сырое значение: {{list.urls}} отдаёт сам
// список, а не его строковую форму. Ссылки внутри строки заменяются
// строковой формой значения.
func (r *Resolver) Resolve(tmpl string) (any, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	// Шаблон из одной ссылки: значение отдаётся как есть.
	if m := refPattern.FindStringSubmatchIndex(tmpl); m != nil && m[0] == 0 && m[1] == len(tmpl) {
		return r.resolveRef(tmpl[m[2]:m[3]])
	}

	var sb strings.Builder
	last := 0
	for _, m := range refPattern.FindAllStringSubmatchIndex(tmpl, -1) {
		val, err := r.resolveRef(tmpl[m[2]:m[3]])
		if err != nil {
			return nil, err
		}
		sb.WriteString(tmpl[last:m[0]])
		sb.WriteString(stringify(val))
		last = m[1]
	}
	sb.WriteString(tmpl[last:])

	return sb.String(), nil
}

// ResolveString резолвит шаблон и приводит результат к строке.
// Удобен для целевых URL и других строковых полей конфигурации.
func (r *Resolver) ResolveString(tmpl string) (string, error) {
	val, err := r.Resolve(tmpl)
	if err != nil {
		return "", err
	}
	return stringify(val), nil
}

// ResolveValue резолвит произвольное значение.
// Строки резолвятся, карты и списки обходятся рекурсивно,
// остальные типы (числа, булевы) возвращаются без изменений.
func (r *Resolver) ResolveValue(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return r.Resolve(v)

	case map[string]any:
		return r.ResolveMap(v)

	case []any:
		return r.ResolveList(v)

	case map[string]string:
		result := make(map[string]string, len(v))
		for key, val := range v {
			resolved, err := r.ResolveString(val)
			if err != nil {
				return nil, err
			}
			result[key] = resolved
		}
		return result, nil

	case []string:
		result := make([]any, len(v))
		for i, val := range v {
			resolved, err := r.Resolve(val)
			if err != nil {
				return nil, err
			}
			result[i] = resolved
		}
		return result, nil

	default:
		return value, nil
	}
}

// ResolveMap резолвит карту значений, например config шага.
func (r *Resolver) ResolveMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return map[string]any{}, nil
	}
	result := make(map[string]any, len(m))
	for key, val := range m {
		resolved, err := r.ResolveValue(val)
		if err != nil {
			return nil, err
		}
		result[key] = resolved
	}
	return result, nil
}

// ResolveList резолвит список значений.
func (r *Resolver) ResolveList(list []any) ([]any, error) {
	result := make([]any, len(list))
	for i, val := range list {
		resolved, err := r.ResolveValue(val)
		if err != nil {
			return nil, err
		}
		result[i] = resolved
	}
	return result, nil
}

// resolveRef резолвит одну ссылку.
//
// Ссылка без точки — глобальная переменная. Ссылка с точками:
// первый сегмент — имя шага, остальные — путь по его данным.
func (r *Resolver) resolveRef(ref string) (any, error) {
	dot := strings.IndexByte(ref, '.')
	if dot < 0 {
		val, ok := r.view.Variable(ref)
		if !ok {
			return nil, newResolveError(ref,
				fmt.Sprintf("unknown variable %q (available: %s)",
					ref, strings.Join(r.view.VariableNames(), ", ")),
				ErrUnknownVariable)
		}
		return val, nil
	}

	stepName := ref[:dot]
	res, ok := r.view.Result(stepName)
	if !ok {
		return nil, newResolveError(ref,
			fmt.Sprintf("step %q has not executed yet", stepName),
			ErrStepNotExecuted)
	}
	if !res.Success() {
		return nil, newResolveError(ref,
			fmt.Sprintf("step %q failed: %s", stepName, res.Error),
			ErrStepFailed)
	}

	return navigate(res.ExtractedData, strings.Split(ref[dot+1:], "."), ref)
}

// navigate проходит путь по извлечённым данным шага.
func navigate(data map[string]any, segments []string, ref string) (any, error) {
	current := any(data)

	for _, seg := range segments {
		switch node := current.(type) {
		case map[string]any:
			val, ok := node[seg]
			if !ok {
				return nil, newResolveError(ref,
					fmt.Sprintf("no field %q in step data", seg), ErrBadPath)
			}
			current = val

		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return nil, newResolveError(ref,
					fmt.Sprintf("segment %q is not a list index", seg), ErrBadPath)
			}
			if idx < 0 || idx >= len(node) {
				return nil, newResolveError(ref,
					fmt.Sprintf("index %d out of range (len %d)", idx, len(node)), ErrBadPath)
			}
			current = node[idx]

		case []string:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return nil, newResolveError(ref,
					fmt.Sprintf("segment %q is not a list index", seg), ErrBadPath)
			}
			if idx < 0 || idx >= len(node) {
				return nil, newResolveError(ref,
					fmt.Sprintf("index %d out of range (len %d)", idx, len(node)), ErrBadPath)
			}
			current = node[idx]

		default:
			return nil, newResolveError(ref,
				fmt.Sprintf("cannot navigate %q: value %T is not a container", seg, current),
				ErrBadPath)
		}
	}

	return current, nil
}

// stringify приводит значение к строковой форме для подстановки.
func stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// Целые float не должны печататься с ".000000":
		// JSON-числа приходят как float64.
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
