package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSpecFile читает спецификацию job из файла в формате JSON или YAML
// и возвращает её как JSON для отправки в API.
//
// Формат определяется по содержимому, не по расширению: валидный JSON
// отправляется как есть, всё остальное разбирается как YAML.
func LoadSpecFile(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}

	if json.Valid(data) {
		return json.RawMessage(data), nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("spec file is neither valid JSON nor YAML: %w", err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML spec to JSON: %w", err)
	}

	return raw, nil
}
