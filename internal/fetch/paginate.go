package fetch

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Режимы пагинации crawl-шага.
const (
	// PaginationQuery — номер страницы в query-параметре: ?page=N.
	PaginationQuery = "query"

	// PaginationPath — номер страницы в пути по шаблону с {page}.
	PaginationPath = "path"

	// PaginationNextLink — переход по ссылке «дальше» на странице.
	PaginationNextLink = "next_link"
)

// defaultMaxPages — предел числа страниц обхода по умолчанию.
const defaultMaxPages = 10

// Pagination — порядок обхода страниц списка.
type Pagination struct {
	// Mode — один из режимов Pagination*. Пусто — пагинации нет.
	Mode string

	// Param — имя query-параметра номера страницы (mode=query).
	Param string

	// Pattern — шаблон URL с {page} (mode=path).
	Pattern string

	// NextSelector — CSS-селектор ссылки «дальше» (mode=next_link).
	NextSelector string

	// Start — номер первой страницы.
	Start int

	// MaxPages — предел числа страниц с одной затравки.
	MaxPages int
}

// paginationFromConfig читает вложенную map "pagination" из
// конфигурации шага. Отсутствующие ключи получают умолчания.
func paginationFromConfig(cfg map[string]any) Pagination {
	sub := getMap(cfg, "pagination")

	p := Pagination{
		Mode:         getString(sub, "mode", ""),
		Param:        getString(sub, "param", "page"),
		Pattern:      getString(sub, "pattern", ""),
		NextSelector: getString(sub, "next_selector", "a[rel=next]"),
		Start:        getInt(sub, "start", 1),
		MaxPages:     getInt(sub, "max_pages", defaultMaxPages),
	}
	if p.MaxPages <= 0 {
		p.MaxPages = defaultMaxPages
	}
	return p
}

// Expand строит URL всех страниц для режимов query и path.
// Без пагинации возвращается сама затравка; для next_link список
// заранее не известен — обход идёт по ссылкам.
func (p Pagination) Expand(seed string) ([]string, error) {
	switch p.Mode {
	case PaginationQuery:
		u, err := url.Parse(seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadTarget, seed, err)
		}
		out := make([]string, 0, p.MaxPages)
		for page := p.Start; page < p.Start+p.MaxPages; page++ {
			q := u.Query()
			q.Set(p.Param, strconv.Itoa(page))
			pu := *u
			pu.RawQuery = q.Encode()
			out = append(out, pu.String())
		}
		return out, nil

	case PaginationPath:
		if !strings.Contains(p.Pattern, "{page}") {
			return nil, fmt.Errorf("pagination pattern %q: no {page} placeholder", p.Pattern)
		}
		out := make([]string, 0, p.MaxPages)
		for page := p.Start; page < p.Start+p.MaxPages; page++ {
			out = append(out, strings.ReplaceAll(p.Pattern, "{page}", strconv.Itoa(page)))
		}
		return out, nil
	}

	return []string{seed}, nil
}
