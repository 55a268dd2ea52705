package fetch

import (
	"context"
	"log/slog"

	"github.com/shaiso/Trawler/internal/domain"
)

// CrawlStrategy — обход многостраничного списка.
//
// Config:
//   - headers (map[string]any): HTTP-заголовки запросов
//   - batch_size (number): размер пачки параллельного обхода. Default: 100
//   - pagination (map):
//   - mode (string): query | path | next_link
//   - param (string): имя query-параметра страницы. Default: page
//   - pattern (string): шаблон URL с {page} для mode=path
//   - next_selector (string): селектор ссылки «дальше». Default: a[rel=next]
//   - start (number): номер первой страницы. Default: 1
//   - max_pages (number): предел страниц с одной затравки. Default: 10
//
// Extracted data: поля из selectors, свёрнутые по всем страницам.
type CrawlStrategy struct {
	client *Client
	log    *slog.Logger
}

// Execute обходит страницы от каждой затравки и сворачивает результаты.
func (s *CrawlStrategy) Execute(ctx context.Context, targets []string, cfg map[string]any, fields map[string]domain.FieldSpec) (*Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	p := paginationFromConfig(cfg)

	var results []*Result
	if p.Mode == PaginationNextLink {
		var err error
		results, err = s.walkNextLinks(ctx, targets, p, cfg, fields)
		if err != nil {
			return nil, err
		}
	} else {
		var pages []string
		for _, seed := range targets {
			expanded, err := p.Expand(seed)
			if err != nil {
				return nil, err
			}
			pages = append(pages, expanded...)
		}

		results = make([]*Result, len(pages))
		err := ForEachBatch(ctx, pages, getInt(cfg, "batch_size", DefaultBatchSize), func(ctx context.Context, i int, page string) error {
			res, _, err := s.fetchPage(ctx, page, cfg, fields)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Сбой одной страницы не валит обход.
				results[i] = failedResult("page %s: %v", page, err)
				return nil
			}
			results[i] = res
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	agg := Aggregate(results)
	if agg.Metadata == nil {
		agg.Metadata = map[string]any{}
	}
	agg.Metadata[metaPages] = len(results)
	return agg, nil
}

// SupportsBatch — стратегия сама обрабатывает весь список затравок.
func (s *CrawlStrategy) SupportsBatch() bool { return true }

// Cleanup — клиент разделяется процессом, освобождать нечего.
func (s *CrawlStrategy) Cleanup() {}

// walkNextLinks обходит страницы по ссылке «дальше» от каждой затравки.
// Обход последовательный: следующая страница не известна, пока не
// получена текущая. Повторный URL останавливает обход затравки.
func (s *CrawlStrategy) walkNextLinks(ctx context.Context, seeds []string, p Pagination, cfg map[string]any, fields map[string]domain.FieldSpec) ([]*Result, error) {
	visited := make(map[string]struct{})
	var results []*Result

	for _, seed := range seeds {
		current := seed
		for hop := 0; hop < p.MaxPages && current != ""; hop++ {
			if _, ok := visited[current]; ok {
				break
			}
			visited[current] = struct{}{}

			if err := ctx.Err(); err != nil {
				return nil, err
			}

			res, page, err := s.fetchPage(ctx, current, cfg, fields)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				results = append(results, failedResult("page %s: %v", current, err))
				break
			}
			results = append(results, res)
			if !res.Success {
				break
			}

			current = extractNextLink(page, p.NextSelector)
		}
	}
	return results, nil
}

// fetchPage загружает одну страницу и строит её Result.
// Page возвращается отдельно: обходу по ссылкам нужно тело страницы.
func (s *CrawlStrategy) fetchPage(ctx context.Context, target string, cfg map[string]any, fields map[string]domain.FieldSpec) (*Result, *Page, error) {
	page, err := s.client.Fetch(ctx, target, getHeaders(cfg))
	if err != nil {
		return nil, nil, err
	}
	res, err := pageResult(page, target, fields)
	if err != nil {
		return nil, nil, err
	}
	return res, page, nil
}

// extractNextLink находит абсолютный URL ссылки «дальше» на странице.
// Пустая строка — ссылки нет, обход закончен.
func extractNextLink(page *Page, selector string) string {
	data, err := ExtractHTML(page.Body, page.FinalURL, map[string]domain.FieldSpec{
		"next": {Selector: selector, Attr: "href"},
	})
	if err != nil {
		return ""
	}
	next, _ := data["next"].(string)
	return next
}
