package fetch

import (
	"context"
	"log/slog"

	"github.com/shaiso/Trawler/internal/domain"
)

// ScrapeStrategy — параллельное извлечение полей со списка страниц.
// Обычный второй шаг после crawl: список URL уже есть, нужно снять
// поля с каждой детальной страницы.
//
// Config:
//   - headers (map[string]any): HTTP-заголовки запросов
//   - batch_size (number): размер пачки параллельного обхода. Default: 100
//
// Extracted data: поля из selectors, свёрнутые по всем целям.
type ScrapeStrategy struct {
	client *Client
	log    *slog.Logger
}

// Execute обходит цели пачками и сворачивает результаты.
func (s *ScrapeStrategy) Execute(ctx context.Context, targets []string, cfg map[string]any, fields map[string]domain.FieldSpec) (*Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	headers := getHeaders(cfg)
	results := make([]*Result, len(targets))

	err := ForEachBatch(ctx, targets, getInt(cfg, "batch_size", DefaultBatchSize), func(ctx context.Context, i int, target string) error {
		page, err := s.client.Fetch(ctx, target, headers)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Сбой одной цели — это провал цели, а не шага.
			results[i] = failedResult("%s: %v", target, err)
			return nil
		}

		res, err := pageResult(page, target, fields)
		if err != nil {
			results[i] = failedResult("%s: %v", target, err)
			return nil
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return Aggregate(results), nil
}

// SupportsBatch — стратегия сама обрабатывает весь список целей.
func (s *ScrapeStrategy) SupportsBatch() bool { return true }

// Cleanup — клиент разделяется процессом, освобождать нечего.
func (s *ScrapeStrategy) Cleanup() {}
