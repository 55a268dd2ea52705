package engine

import (
	"fmt"

	"github.com/shaiso/Trawler/internal/domain"
)

// ResolveParams сверяет входные параметры запуска с объявлениями
// spec.params и возвращает итоговый набор.
//
// Для объявленных, но не переданных параметров подставляется default;
// обязательный параметр без значения и без default — ошибка. Типы
// переданных значений проверяются против объявленных ("string",
// "number", "boolean", "object", "list"). Параметры, не объявленные
// в спецификации, пропускаются как есть: они становятся обычными
// глобальными переменными запуска.
func ResolveParams(spec *domain.JobSpec, given map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(given))
	for k, v := range given {
		resolved[k] = v
	}

	if spec == nil || len(spec.Params) == 0 {
		return resolved, nil
	}

	for name, def := range spec.Params {
		value, ok := resolved[name]
		if !ok {
			if def.Default != nil {
				resolved[name] = def.Default
				continue
			}
			if def.Required {
				return nil, fmt.Errorf("%w: %s", ErrMissingParam, name)
			}
			continue
		}

		if err := checkParamType(name, def.Type, value); err != nil {
			return nil, err
		}
	}

	return resolved, nil
}

// checkParamType проверяет соответствие значения объявленному типу.
// Пустой тип допускает любое значение.
func checkParamType(name, typ string, value any) error {
	if typ == "" || value == nil {
		return nil
	}

	ok := true
	switch typ {
	case "string":
		_, ok = value.(string)
	case "number":
		switch value.(type) {
		case int, int64, float64:
		default:
			ok = false
		}
	case "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]any)
	case "list":
		_, ok = value.([]any)
	default:
		// Неизвестный тип в объявлении — не наказываем вызывающего
		return nil
	}

	if !ok {
		return fmt.Errorf("%w: param %s expects %s, got %T", ErrBadParamType, name, typ, value)
	}
	return nil
}
