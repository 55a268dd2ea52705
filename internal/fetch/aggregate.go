package fetch

import (
	"fmt"
	"strings"

	"github.com/shaiso/Trawler/internal/domain"
)

// Aggregate сворачивает результаты по целям в один Result.
//
// Закон свёртки:
//   - хотя бы одна цель успешна → Success=true, Error пуст,
//     extractedData успешных целей сливаются: одноимённые поля
//     конкатенируются в списки;
//   - все цели провалены → Success=false, Error описывает провал;
//   - ошибки отдельных целей всегда перечислены в Metadata["errors"].
//
// Единственная цель возвращается без изменения формы данных:
// скалярные поля остаются скалярами, чтобы ссылки вида
// {{step.field}} в зависимых шагах видели привычные значения.
// nil-элементы results допустимы и считаются проваленными целями.
func Aggregate(results []*Result) *Result {
	if len(results) == 0 {
		return failedResult("no targets produced results")
	}
	if len(results) == 1 && results[0] != nil {
		return results[0]
	}

	merged := make(map[string]any)
	var errs []string
	succeeded := 0
	statusCode := 0

	for i, r := range results {
		if r == nil {
			errs = append(errs, fmt.Sprintf("target %d: no result", i))
			continue
		}
		if !r.Success {
			msg := r.Error
			if msg == "" {
				msg = fmt.Sprintf("HTTP %d", r.StatusCode)
			}
			errs = append(errs, fmt.Sprintf("target %d: %s", i, msg))
			continue
		}

		succeeded++
		// Статус берём только с успешной цели: статус провала
		// сделал бы свёрнутый результат ошибочным на вид.
		if statusCode == 0 {
			statusCode = r.StatusCode
		}
		for name, val := range r.ExtractedData {
			merged[name] = append(asList(merged[name]), asList(val)...)
		}
	}

	meta := map[string]any{domain.MetaTargets: len(results)}
	if len(errs) > 0 {
		meta[domain.MetaErrors] = errs
	}

	if succeeded == 0 {
		return &Result{
			StatusCode:    statusCode,
			ExtractedData: merged,
			Metadata:      meta,
			Error:         fmt.Sprintf("all %d targets failed: %s", len(results), truncate(strings.Join(errs, "; "), 500)),
		}
	}

	return &Result{
		Success:       true,
		StatusCode:    statusCode,
		ExtractedData: merged,
		Metadata:      meta,
	}
}

// asList приводит значение к списку для конкатенации полей.
func asList(val any) []any {
	switch v := val.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}
