package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// defaultTimeout — таймаут одного HTTP-запроса по умолчанию.
	defaultTimeout = 30 * time.Second

	// defaultUserAgent подставляется, когда UA не задан конфигурацией.
	defaultUserAgent = "Trawler/1.0 (+https://github.com/shaiso/Trawler)"

	// Вежливость по умолчанию: не более 4 запросов в секунду
	// на один хост со всплеском до 8.
	defaultHostRPS   = 4
	defaultHostBurst = 8

	// maxBodyBytes — предел чтения тела ответа.
	maxBodyBytes = 10 << 20
)

// ClientConfig — настройки общего HTTP-клиента стратегий.
type ClientConfig struct {
	// UserAgent — значение User-Agent для запросов без своего заголовка.
	UserAgent string

	// Timeout — таймаут одного запроса. 0 — defaultTimeout.
	Timeout time.Duration

	// HostRPS — допустимая частота запросов на один хост. 0 — defaultHostRPS.
	HostRPS float64

	// HostBurst — размер всплеска на один хост. 0 — defaultHostBurst.
	HostBurst int
}

// Client — общий HTTP-клиент стратегий с ограничением частоты по хостам.
//
// Один Client живёт столько же, сколько процесс: пул соединений
// переиспользуется всеми запусками, а token bucket на каждый хост
// не даёт заспамить сайт даже при параллельном обходе сотен страниц.
type Client struct {
	http    *http.Client
	ua      string
	timeout time.Duration
	rps     rate.Limit
	burst   int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	log *slog.Logger
}

// Page — результат одного HTTP-запроса.
type Page struct {
	// StatusCode — HTTP-статус ответа.
	StatusCode int

	// Body — тело ответа, не более maxBodyBytes.
	Body []byte

	// Header — заголовки ответа.
	Header http.Header

	// FinalURL — URL после редиректов; база для относительных ссылок.
	FinalURL string
}

// NewClient создаёт клиент с настройками cfg.
func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.HostRPS <= 0 {
		cfg.HostRPS = defaultHostRPS
	}
	if cfg.HostBurst <= 0 {
		cfg.HostBurst = defaultHostBurst
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		// Срок жизни запроса задаёт контекст вызова: таймаут шага
		// ставит runner, и клиентский Timeout его бы перебивал.
		http:     &http.Client{},
		ua:       cfg.UserAgent,
		timeout:  cfg.Timeout,
		rps:      rate.Limit(cfg.HostRPS),
		burst:    cfg.HostBurst,
		limiters: make(map[string]*rate.Limiter),
		log:      log,
	}
}

// Fetch выполняет GET и возвращает страницу.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers map[string]string) (*Page, error) {
	return c.Request(ctx, http.MethodGet, rawURL, headers, nil)
}

// Request выполняет запрос method на rawURL, дождавшись слота
// лимитера хоста. Тело ответа читается целиком.
func (c *Client) Request(ctx context.Context, method, rawURL string, headers map[string]string, body []byte) (*Page, error) {
	u, err := parseTarget(rawURL)
	if err != nil {
		return nil, err
	}

	// Без дедлайна сверху страхуемся собственным таймаутом.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// Ждём слот лимитера: уважение к чужому серверу важнее скорости.
	if err := c.limiter(u.Host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", ErrHTTPRequest, err)
	}

	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrHTTPRequest, err)
	}

	req.Header.Set("User-Agent", c.ua)
	for key, val := range headers {
		req.Header.Set(key, val)
	}
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrHTTPRequest, err)
	}

	c.log.Debug("http request",
		"method", method,
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(respBody),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Page{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Header:     resp.Header,
		FinalURL:   finalURL,
	}, nil
}

// limiter возвращает лимитер хоста, создавая его при первом обращении.
func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(c.rps, c.burst)
		c.limiters[host] = lim
	}
	return lim
}

// parseTarget проверяет, что цель — абсолютный http(s)-URL.
func parseTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadTarget, rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadTarget, rawURL)
	}
	return u, nil
}
