package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shaiso/Trawler/internal/domain"
)

// ExtractHTML извлекает поля из HTML-документа по CSS-селекторам.
//
// baseURL служит базой для относительных href/src. Отсутствие
// совпадений — не ошибка: одиночное поле получает пустую строку,
// поле со all — пустой список. Ошибка возвращается только при
// некорректной спецификации (битое регулярное выражение).
func ExtractHTML(body []byte, baseURL string, fields map[string]domain.FieldSpec) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	// base == nil при пустом baseURL: относительные ссылки остаются как есть.
	base, _ := url.Parse(baseURL)
	if baseURL == "" {
		base = nil
	}

	data := make(map[string]any, len(fields))
	for name, spec := range fields {
		if spec.Selector == "" {
			// Поле задано через json_path — из HTML его не извлечь.
			data[name] = nil
			continue
		}

		re, err := compileFieldRegexp(name, spec)
		if err != nil {
			return nil, err
		}

		sel := doc.Find(spec.Selector)
		if spec.All {
			values := make([]any, 0, sel.Length())
			sel.Each(func(_ int, s *goquery.Selection) {
				values = append(values, selectionValue(s, base, spec, re))
			})
			data[name] = values
			continue
		}

		if sel.Length() == 0 {
			data[name] = ""
			continue
		}
		data[name] = selectionValue(sel.First(), base, spec, re)
	}
	return data, nil
}

// selectionValue возвращает значение одного элемента: текст либо атрибут,
// с разрешением относительных URL и применением регулярного выражения.
func selectionValue(s *goquery.Selection, base *url.URL, spec domain.FieldSpec, re *regexp.Regexp) string {
	var val string
	if spec.Attr != "" {
		val = strings.TrimSpace(s.AttrOr(spec.Attr, ""))
		if base != nil && isURLAttr(spec.Attr) {
			val = resolveURL(base, val)
		}
	} else {
		val = strings.TrimSpace(s.Text())
	}

	if re != nil {
		val = applyRegexp(re, val)
	}
	return val
}

// ExtractJSON извлекает поля из JSON-документа по точечным путям.
//
// Путь берётся из json_path; краткая строковая форма поля для
// api-шагов тоже трактуется как путь. Отсутствующий путь даёт nil.
func ExtractJSON(body []byte, fields map[string]domain.FieldSpec) (map[string]any, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	data := make(map[string]any, len(fields))
	for name, spec := range fields {
		path := spec.JSONPath
		if path == "" {
			path = spec.Selector
		}

		re, err := compileFieldRegexp(name, spec)
		if err != nil {
			return nil, err
		}

		val, ok := jsonPath(root, path)
		if !ok {
			data[name] = nil
			continue
		}

		if re != nil {
			if s, isStr := val.(string); isStr {
				val = applyRegexp(re, s)
			}
		}

		if spec.All {
			if _, isList := val.([]any); !isList {
				val = []any{val}
			}
		}
		data[name] = val
	}
	return data, nil
}

// jsonPath идёт по точечному пути: числовой сегмент — индекс списка,
// прочие — ключ объекта. Сегмент по списку без индекса собирает
// значение сегмента с каждого элемента списка.
func jsonPath(node any, path string) (any, bool) {
	if path == "" {
		return node, true
	}

	segs := strings.Split(path, ".")
	cur := node
	for i, seg := range segs {
		switch n := cur.(type) {
		case map[string]any:
			val, ok := n[seg]
			if !ok {
				return nil, false
			}
			cur = val
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				rest := strings.Join(segs[i:], ".")
				out := make([]any, 0, len(n))
				for _, el := range n {
					if val, ok := jsonPath(el, rest); ok {
						out = append(out, val)
					}
				}
				return out, true
			}
			if idx < 0 || idx >= len(n) {
				return nil, false
			}
			cur = n[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// compileFieldRegexp компилирует регулярное выражение поля.
func compileFieldRegexp(name string, spec domain.FieldSpec) (*regexp.Regexp, error) {
	if spec.Regexp == "" {
		return nil, nil
	}
	re, err := regexp.Compile(spec.Regexp)
	if err != nil {
		return nil, fmt.Errorf("field %q: bad regexp: %w", name, err)
	}
	return re, nil
}

// applyRegexp оставляет от значения первую группу выражения,
// а без групп — всё совпадение. Нет совпадения — пустая строка.
func applyRegexp(re *regexp.Regexp, val string) string {
	m := re.FindStringSubmatch(val)
	if m == nil {
		return ""
	}
	if len(m) > 1 {
		return m[1]
	}
	return m[0]
}

// isURLAttr — атрибуты, значения которых разрешаются относительно базы.
func isURLAttr(attr string) bool {
	return attr == "href" || attr == "src" || attr == "action"
}

// resolveURL разрешает относительную ссылку против базового URL.
func resolveURL(base *url.URL, val string) string {
	if val == "" {
		return val
	}
	ref, err := url.Parse(val)
	if err != nil {
		return val
	}
	return base.ResolveReference(ref).String()
}
