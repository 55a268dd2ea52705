package domain

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldSpec — спецификация извлечения одного поля из страницы.
//
// В спецификации job поле может быть записано двумя способами:
//
//	title: "h1.title"                          — краткая форма, только CSS-селектор
//	link:  {selector: "a.more", attr: "href"}  — полная форма
type FieldSpec struct {
	// Selector — CSS-селектор элемента.
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`

	// Attr — имя атрибута элемента. Пусто — берётся текст элемента.
	Attr string `json:"attr,omitempty" yaml:"attr,omitempty"`

	// Regexp — регулярное выражение, применяемое к извлечённому тексту.
	// Если есть группа, берётся первая группа, иначе всё совпадение.
	Regexp string `json:"regexp,omitempty" yaml:"regexp,omitempty"`

	// JSONPath — путь в JSON-ответе через точку: "data.items.0.id".
	// Используется api-шагами вместо CSS-селектора.
	JSONPath string `json:"json_path,omitempty" yaml:"json_path,omitempty"`

	// All — извлекать все совпадения списком, а не только первое.
	All bool `json:"all,omitempty" yaml:"all,omitempty"`
}

// fieldSpecAlias нужен, чтобы полная форма не зациклила UnmarshalJSON.
type fieldSpecAlias FieldSpec

// UnmarshalJSON поддерживает краткую строковую форму поля.
func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	var short string
	if err := json.Unmarshal(data, &short); err == nil {
		*f = FieldSpec{Selector: short}
		return nil
	}

	var full fieldSpecAlias
	if err := json.Unmarshal(data, &full); err != nil {
		return fmt.Errorf("field spec: %w", err)
	}
	*f = FieldSpec(full)
	return nil
}

// UnmarshalYAML поддерживает краткую строковую форму поля в YAML-спецификациях.
func (f *FieldSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*f = FieldSpec{Selector: node.Value}
		return nil
	}

	var full fieldSpecAlias
	if err := node.Decode(&full); err != nil {
		return fmt.Errorf("field spec: %w", err)
	}
	*f = FieldSpec(full)
	return nil
}

// IsZero возвращает true, если спецификация пустая.
func (f FieldSpec) IsZero() bool {
	return f == FieldSpec{}
}
