package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/shaiso/Trawler/internal/dedup"
	"github.com/shaiso/Trawler/internal/domain"
)

// BrowserStrategy — получение страницы через headless-браузер.
// Для сайтов, собирающих содержимое на JavaScript.
//
// Config:
//   - wait_selector (string): CSS-селектор элемента, которого ждём. Default: body
//   - wait_ms (number): дополнительная пауза после загрузки, мс
//
// Extracted data: поля из selectors по CSS-селекторам, применённым
// к отрендеренному DOM.
type BrowserStrategy struct {
	pool *BrowserPool
	log  *slog.Logger
}

// Execute рендерит первую цель во вкладке браузера и извлекает поля.
func (s *BrowserStrategy) Execute(ctx context.Context, targets []string, cfg map[string]any, fields map[string]domain.FieldSpec) (*Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if s.pool == nil {
		return nil, ErrNoBrowser
	}
	target := targets[0]
	if _, err := parseTarget(target); err != nil {
		return nil, err
	}

	tabCtx, release, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire browser tab: %w", err)
	}
	defer release()

	// Отмена или таймаут шага закрывает вкладку: контекст вкладки
	// растёт из аллокатора и сам по себе отмену шага не видит.
	stop := context.AfterFunc(ctx, release)
	defer stop()

	waitSel := getString(cfg, "wait_selector", "body")
	actions := []chromedp.Action{
		chromedp.Navigate(target),
		chromedp.WaitReady(waitSel, chromedp.ByQuery),
	}
	if waitMS := getInt(cfg, "wait_ms", 0); waitMS > 0 {
		actions = append(actions, chromedp.Sleep(time.Duration(waitMS)*time.Millisecond))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	start := time.Now()
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		// Отменённый сверху контекст возвращаем как есть: runner
		// должен увидеть отмену шага, а не сбой браузера.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("browser: %w", err)
	}

	s.log.Debug("browser render",
		"url", target,
		"bytes", len(html),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	body := []byte(html)
	meta := map[string]any{
		metaURL:                target,
		domain.MetaContentHash: dedup.HexHash(body),
		"rendered":             true,
	}

	data, err := ExtractHTML(body, target, fields)
	if err != nil {
		return &Result{Content: html, Metadata: meta, Error: fmt.Sprintf("extract: %v", err)}, nil
	}

	// StatusCode остаётся 0: браузер не отдаёт HTTP-статус без
	// подписки на network-события.
	return &Result{
		Success:       true,
		Content:       html,
		ExtractedData: data,
		Metadata:      meta,
	}, nil
}

// SupportsBatch — по вызову на цель.
func (s *BrowserStrategy) SupportsBatch() bool { return false }

// Cleanup — вкладка закрывается после каждого вызова, пул живёт с процессом.
func (s *BrowserStrategy) Cleanup() {}
