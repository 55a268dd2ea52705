package fetch

// Помощники доступа к конфигурации шага. Конфигурация приходит из
// JSON/YAML после подстановки шаблонов, поэтому числа могут быть
// как float64, так и int, а строки — результатом stringify.

// getString извлекает строку из map с default значением.
func getString(m map[string]any, key, defaultVal string) string {
	if val, ok := m[key]; ok {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}

// getInt извлекает целое из map с default значением.
func getInt(m map[string]any, key string, defaultVal int) int {
	val, ok := m[key]
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultVal
}

// getBool извлекает флаг из map с default значением.
func getBool(m map[string]any, key string, defaultVal bool) bool {
	if val, ok := m[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// getHeaders извлекает HTTP-заголовки из конфигурации шага.
func getHeaders(m map[string]any) map[string]string {
	raw, ok := m["headers"]
	if !ok || raw == nil {
		return nil
	}

	switch h := raw.(type) {
	case map[string]string:
		return h
	case map[string]any:
		headers := make(map[string]string, len(h))
		for key, val := range h {
			if s, ok := val.(string); ok {
				headers[key] = s
			}
		}
		return headers
	}
	return nil
}

// getMap извлекает вложенную map из конфигурации шага.
func getMap(m map[string]any, key string) map[string]any {
	if val, ok := m[key]; ok {
		if sub, ok := val.(map[string]any); ok {
			return sub
		}
	}
	return nil
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
