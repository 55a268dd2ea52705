package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shaiso/Trawler/internal/dedup"
	"github.com/shaiso/Trawler/internal/domain"
)

// APIStrategy — обращение к JSON API.
//
// Config:
//   - method (string): HTTP-метод. Default: GET
//   - headers (map[string]any): HTTP-заголовки запроса
//   - body (any): тело запроса, сериализуется в JSON
//
// Extracted data: поля из selectors по json_path; без selectors
// разобранное тело целиком кладётся в поле "body".
type APIStrategy struct {
	client *Client
	log    *slog.Logger
}

// Execute выполняет запрос к API и извлекает поля из JSON-ответа.
func (s *APIStrategy) Execute(ctx context.Context, targets []string, cfg map[string]any, fields map[string]domain.FieldSpec) (*Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	target := targets[0]

	method := getString(cfg, "method", http.MethodGet)

	var body []byte
	if raw, ok := cfg["body"]; ok && raw != nil {
		var err error
		body, err = json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal body: %v", ErrHTTPRequest, err)
		}
	}

	headers := getHeaders(cfg)
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}

	page, err := s.client.Request(ctx, method, target, headers, body)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{
		metaURL:                target,
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

	var data map[string]any
	if len(fields) > 0 {
		data, err = ExtractJSON(page.Body, fields)
		if err != nil {
			return &Result{
				StatusCode: page.StatusCode,
				Content:    string(page.Body),
				Metadata:   meta,
				Error:      fmt.Sprintf("extract: %v", err),
			}, nil
		}
	} else {
		// Без селекторов отдаём разобранное тело: зависимые шаги
		// доберутся до нужного через {{step.body.path}}.
		var parsed any
		if err := json.Unmarshal(page.Body, &parsed); err != nil {
			parsed = string(page.Body)
		}
		data = map[string]any{"body": parsed}
	}

	return &Result{
		Success:       true,
		StatusCode:    page.StatusCode,
		Content:       string(page.Body),
		ExtractedData: data,
		Metadata:      meta,
	}, nil
}

// SupportsBatch — по вызову на цель.
func (s *APIStrategy) SupportsBatch() bool { return false }

// Cleanup — клиент разделяется процессом, освобождать нечего.
func (s *APIStrategy) Cleanup() {}
