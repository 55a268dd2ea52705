package fetch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/chromedp/chromedp"
)

// defaultMaxTabs — максимум одновременно открытых вкладок браузера.
const defaultMaxTabs = 4

// BrowserConfig — настройки пула браузера.
type BrowserConfig struct {
	// MaxTabs — максимум одновременно открытых вкладок. 0 — defaultMaxTabs.
	MaxTabs int

	// UserAgent браузерных запросов. Пусто — UA браузера.
	UserAgent string

	// Headful выключает headless-режим. Только для отладки.
	Headful bool
}

// BrowserPool — ограниченный пул вкладок headless-браузера.
//
// Пул разделяется всеми запусками процесса: один Chrome, на каждый
// вызов — свежая вкладка, семафор ограничивает их число. Вкладка
// закрывается сразу после вызова, поэтому зависший сайт не может
// удерживать её дольше таймаута шага.
type BrowserPool struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	sem         chan struct{}
	log         *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewBrowserPool создаёт пул вкладок поверх одного экземпляра браузера.
// Браузер запускается лениво при первой вкладке.
func NewBrowserPool(parent context.Context, cfg BrowserConfig, log *slog.Logger) *BrowserPool {
	if cfg.MaxTabs <= 0 {
		cfg.MaxTabs = defaultMaxTabs
	}
	if log == nil {
		log = slog.Default()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !cfg.Headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)

	return &BrowserPool{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		sem:         make(chan struct{}, cfg.MaxTabs),
		log:         log,
	}
}

// Acquire выдаёт контекст новой вкладки, дождавшись свободного слота.
// Вызывающий обязан вызвать release; повторный release безопасен.
func (p *BrowserPool) Acquire(ctx context.Context) (context.Context, context.CancelFunc, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	tabCtx, tabCancel := chromedp.NewContext(p.allocCtx)

	var once sync.Once
	release := func() {
		once.Do(func() {
			tabCancel()
			<-p.sem
		})
	}
	return tabCtx, release, nil
}

// Close закрывает браузер вместе со всеми вкладками. Идемпотентен.
func (p *BrowserPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.allocCancel()
}
