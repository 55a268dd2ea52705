package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Trawler/internal/dedup"
	"github.com/shaiso/Trawler/internal/domain"
)

// HTTPStrategy — получение одной страницы простым GET-запросом.
//
// Config:
//   - headers (map[string]any): HTTP-заголовки запроса
//
// Extracted data: поля из selectors по CSS-селекторам.
type HTTPStrategy struct {
	client *Client
	log    *slog.Logger
}

// Execute загружает первую цель и извлекает поля.
func (s *HTTPStrategy) Execute(ctx context.Context, targets []string, cfg map[string]any, fields map[string]domain.FieldSpec) (*Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	target := targets[0]

	page, err := s.client.Fetch(ctx, target, getHeaders(cfg))
	if err != nil {
		return nil, err
	}

	return pageResult(page, target, fields)
}

// SupportsBatch — по вызову на цель.
func (s *HTTPStrategy) SupportsBatch() bool { return false }

// Cleanup — клиент разделяется процессом, освобождать нечего.
func (s *HTTPStrategy) Cleanup() {}

// pageResult превращает загруженную страницу в Result:
// HTTP >= 400 — логическая ошибка, извлечённые поля сохраняются
// у успешных ответов.
func pageResult(page *Page, target string, fields map[string]domain.FieldSpec) (*Result, error) {
	meta := map[string]any{
		metaURL:                target,
		metaFinalURL:           page.FinalURL,
		domain.MetaContentHash: dedup.HexHash(page.Body),
	}

	if page.StatusCode >= 400 {
		return &Result{
			StatusCode: page.StatusCode,
			Content:    string(page.Body),
			Metadata:   meta,
			Error:      fmt.Sprintf("HTTP %d: %s", page.StatusCode, truncate(string(page.Body), 200)),
		}, nil
	}

	data, err := ExtractHTML(page.Body, page.FinalURL, fields)
	if err != nil {
		return &Result{
			StatusCode: page.StatusCode,
			Content:    string(page.Body),
			Metadata:   meta,
			Error:      fmt.Sprintf("extract: %v", err),
		}, nil
	}

	return &Result{
		Success:       true,
		StatusCode:    page.StatusCode,
		Content:       string(page.Body),
		ExtractedData: data,
		Metadata:      meta,
	}, nil
}
