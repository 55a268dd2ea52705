package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Trawler/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClient — клиент без ограничения частоты, чтобы тесты не ждали.
func testClient() *Client {
	return NewClient(ClientConfig{HostRPS: 10000, HostBurst: 10000}, testLogger())
}

// Registry Tests

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get(domain.MethodHTTP)
	if !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("expected ErrUnknownMethod, got %v", err)
	}

	r.Register(domain.MethodHTTP, &HTTPStrategy{client: testClient(), log: testLogger()})
	s, err := r.Get(domain.MethodHTTP)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s == nil {
		t.Fatal("strategy should not be nil")
	}
}

func TestFactory_RegistersAllMethods(t *testing.T) {
	f := NewFactory(testClient(), nil, testLogger())
	r := f.NewRegistry()

	for _, m := range domain.Methods() {
		s, err := r.Get(m)
		if err != nil {
			t.Errorf("method %s: %v", m, err)
			continue
		}
		switch m {
		case domain.MethodCrawl, domain.MethodScrape:
			if !s.SupportsBatch() {
				t.Errorf("method %s should support batch", m)
			}
		default:
			if s.SupportsBatch() {
				t.Errorf("method %s should not support batch", m)
			}
		}
	}

	// CleanupAll на полном реестре безопасен и повторяем
	r.CleanupAll()
	r.CleanupAll()
}

// HTTP Strategy Tests

func TestHTTPStrategy_Extracts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1 class="t">Заголовок</h1><a class="next" href="/p2">дальше</a></body></html>`)
	}))
	defer server.Close()

	s := &HTTPStrategy{client: testClient(), log: testLogger()}
	res, err := s.Execute(context.Background(), []string{server.URL}, nil, map[string]domain.FieldSpec{
		"title": {Selector: "h1.t"},
		"next":  {Selector: "a.next", Attr: "href"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.StatusCode != 200 {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
	if res.ExtractedData["title"] != "Заголовок" {
		t.Errorf("unexpected title: %v", res.ExtractedData["title"])
	}
	// Относительная ссылка разрешена против URL сервера
	if res.ExtractedData["next"] != server.URL+"/p2" {
		t.Errorf("unexpected next link: %v", res.ExtractedData["next"])
	}
	if res.Metadata[domain.MetaContentHash] == "" {
		t.Error("expected content hash in metadata")
	}
}

func TestHTTPStrategy_Status404IsLogicalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	s := &HTTPStrategy{client: testClient(), log: testLogger()}
	res, err := s.Execute(context.Background(), []string{server.URL}, nil, nil)

	// Ответ получен — это не инфраструктурный сбой
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Error("expected failure")
	}
	if res.StatusCode != 404 {
		t.Errorf("expected 404, got %d", res.StatusCode)
	}
	if res.Error == "" {
		t.Error("expected error text")
	}
}

func TestHTTPStrategy_SendsHeaders(t *testing.T) {
	var gotAuth, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := &HTTPStrategy{client: testClient(), log: testLogger()}
	cfg := map[string]any{
		"headers": map[string]any{"Authorization": "Bearer secret123"},
	}
	if _, err := s.Execute(context.Background(), []string{server.URL}, cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer secret123" {
		t.Errorf("expected auth header, got %q", gotAuth)
	}
	if gotUA != defaultUserAgent {
		t.Errorf("expected default UA, got %q", gotUA)
	}
}

func TestHTTPStrategy_BadTarget(t *testing.T) {
	s := &HTTPStrategy{client: testClient(), log: testLogger()}

	_, err := s.Execute(context.Background(), []string{"ftp://example.com"}, nil, nil)
	if !errors.Is(err, ErrBadTarget) {
		t.Errorf("expected ErrBadTarget, got %v", err)
	}

	_, err = s.Execute(context.Background(), nil, nil, nil)
	if !errors.Is(err, ErrNoTargets) {
		t.Errorf("expected ErrNoTargets, got %v", err)
	}
}

func TestHTTPStrategy_Cancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := &HTTPStrategy{client: testClient(), log: testLogger()}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Execute(ctx, []string{server.URL}, nil, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Errorf("cancellation took too long")
	}
}

// API Strategy Tests

func TestAPIStrategy_JSONPaths(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("expected Accept: application/json")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": {"items": [{"id": "x1"}, {"id": "x2"}], "total": 2}}`)
	}))
	defer server.Close()

	s := &APIStrategy{client: testClient(), log: testLogger()}
	res, err := s.Execute(context.Background(), []string{server.URL}, nil, map[string]domain.FieldSpec{
		"ids":   {JSONPath: "data.items.id", All: true},
		"total": {JSONPath: "data.total"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if !reflect.DeepEqual(res.ExtractedData["ids"], []any{"x1", "x2"}) {
		t.Errorf("unexpected ids: %v", res.ExtractedData["ids"])
	}
	if res.ExtractedData["total"] != float64(2) {
		t.Errorf("unexpected total: %v", res.ExtractedData["total"])
	}
}

func TestAPIStrategy_PostBody(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer server.Close()

	s := &APIStrategy{client: testClient(), log: testLogger()}
	cfg := map[string]any{
		"method": "POST",
		"body":   map[string]any{"query": "scrapers"},
	}
	res, err := s.Execute(context.Background(), []string{server.URL}, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected json content type, got %q", gotContentType)
	}
	if string(gotBody) != `{"query":"scrapers"}` {
		t.Errorf("unexpected body: %s", gotBody)
	}

	// Без selectors разобранное тело лежит в "body"
	body, ok := res.ExtractedData["body"].(map[string]any)
	if !ok {
		t.Fatalf("expected parsed body, got %T", res.ExtractedData["body"])
	}
	if body["ok"] != true {
		t.Errorf("unexpected body: %v", body)
	}
}

// Browser Strategy Tests

func TestBrowserStrategy_NoPool(t *testing.T) {
	s := &BrowserStrategy{pool: nil, log: testLogger()}
	_, err := s.Execute(context.Background(), []string{"https://example.com"}, nil, nil)
	if !errors.Is(err, ErrNoBrowser) {
		t.Errorf("expected ErrNoBrowser, got %v", err)
	}
}

func TestBrowserPool_AcquireBounded(t *testing.T) {
	// Вкладка создаётся лениво, сам браузер здесь не запускается.
	pool := NewBrowserPool(context.Background(), BrowserConfig{MaxTabs: 1}, testLogger())
	defer pool.Close()

	_, release1, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Второй слот занят — ждём до таймаута контекста
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err = pool.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}

	// После release слот свободен; повторный release безопасен
	release1()
	release1()
	_, release2, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error after release: %v", err)
	}
	release2()
}

// Scrape Strategy Tests

func TestScrapeStrategy_AggregatesTargets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `<html><body><h1>item %s</h1></body></html>`, r.URL.Path)
	}))
	defer server.Close()

	s := &ScrapeStrategy{client: testClient(), log: testLogger()}
	targets := []string{server.URL + "/a", server.URL + "/broken", server.URL + "/b"}

	res, err := s.Execute(context.Background(), targets, nil, map[string]domain.FieldSpec{
		"name": {Selector: "h1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Хотя бы одна цель успешна — шаг успешен
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if res.Error != "" {
		t.Errorf("expected empty error, got %q", res.Error)
	}

	names, ok := res.ExtractedData["name"].([]any)
	if !ok {
		t.Fatalf("expected list of names, got %T", res.ExtractedData["name"])
	}
	sort.Slice(names, func(i, j int) bool { return names[i].(string) < names[j].(string) })
	if !reflect.DeepEqual(names, []any{"item /a", "item /b"}) {
		t.Errorf("unexpected names: %v", names)
	}

	// Ошибки отдельных целей — в метаданных
	errs, ok := res.Metadata[domain.MetaErrors].([]string)
	if !ok || len(errs) != 1 {
		t.Fatalf("expected 1 target error, got %v", res.Metadata[domain.MetaErrors])
	}
	if res.Metadata[domain.MetaTargets] != 3 {
		t.Errorf("expected 3 targets, got %v", res.Metadata[domain.MetaTargets])
	}
}

func TestScrapeStrategy_AllTargetsFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := &ScrapeStrategy{client: testClient(), log: testLogger()}
	res, err := s.Execute(context.Background(), []string{server.URL + "/1", server.URL + "/2"}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Success {
		t.Error("expected failure when every target failed")
	}
	if res.Error == "" {
		t.Error("expected aggregate error text")
	}
}

// Crawl Strategy Tests

func TestCrawlStrategy_QueryPagination(t *testing.T) {
	var pages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("p")
		pages = append(pages, page)
		fmt.Fprintf(w, `<html><body><span class="n">страница %s</span></body></html>`, page)
	}))
	defer server.Close()

	s := &CrawlStrategy{client: testClient(), log: testLogger()}
	cfg := map[string]any{
		"batch_size": 1, // страницы по одной, чтобы порядок был детерминирован
		"pagination": map[string]any{
			"mode":      "query",
			"param":     "p",
			"max_pages": 3,
		},
	}

	res, err := s.Execute(context.Background(), []string{server.URL + "/list"}, cfg, map[string]domain.FieldSpec{
		"names": {Selector: "span.n", All: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if !reflect.DeepEqual(pages, []string{"1", "2", "3"}) {
		t.Errorf("unexpected pages fetched: %v", pages)
	}
	if res.Metadata[metaPages] != 3 {
		t.Errorf("expected 3 pages in metadata, got %v", res.Metadata[metaPages])
	}

	names, _ := res.ExtractedData["names"].([]any)
	if len(names) != 3 {
		t.Errorf("expected 3 names, got %v", names)
	}
}

func TestCrawlStrategy_NextLink(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.URL.Query().Get("p"))
		if n == 0 {
			n = 1
		}
		next := ""
		if n < 3 {
			next = fmt.Sprintf(`<a rel="next" href="/?p=%d">дальше</a>`, n+1)
		}
		fmt.Fprintf(w, `<html><body><span class="n">стр %d</span>%s</body></html>`, n, next)
	})

	s := &CrawlStrategy{client: testClient(), log: testLogger()}
	cfg := map[string]any{
		"pagination": map[string]any{
			"mode":      "next_link",
			"max_pages": 10,
		},
	}

	res, err := s.Execute(context.Background(), []string{server.URL + "/"}, cfg, map[string]domain.FieldSpec{
		"names": {Selector: "span.n", All: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Обход остановился на странице без ссылки «дальше»
	names, _ := res.ExtractedData["names"].([]any)
	if !reflect.DeepEqual(names, []any{"стр 1", "стр 2", "стр 3"}) {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestCrawlStrategy_NextLinkCycleStops(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		// Ссылка «дальше» ведёт на эту же страницу
		fmt.Fprint(w, `<html><body><a rel="next" href="/">дальше</a></body></html>`)
	}))
	defer server.Close()

	s := &CrawlStrategy{client: testClient(), log: testLogger()}
	cfg := map[string]any{
		"pagination": map[string]any{"mode": "next_link", "max_pages": 50},
	}

	if _, err := s.Execute(context.Background(), []string{server.URL + "/"}, cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected cycle to stop after 1 hit, got %d", hits.Load())
	}
}

// Pagination Tests

func TestPaginationExpand(t *testing.T) {
	tests := []struct {
		name string
		p    Pagination
		seed string
		want []string
	}{
		{
			name: "query",
			p:    Pagination{Mode: PaginationQuery, Param: "page", Start: 1, MaxPages: 3},
			seed: "https://shop.example/list?sort=asc",
			want: []string{
				"https://shop.example/list?page=1&sort=asc",
				"https://shop.example/list?page=2&sort=asc",
				"https://shop.example/list?page=3&sort=asc",
			},
		},
		{
			name: "path",
			p:    Pagination{Mode: PaginationPath, Pattern: "https://shop.example/list/{page}", Start: 2, MaxPages: 2},
			seed: "https://shop.example/list",
			want: []string{
				"https://shop.example/list/2",
				"https://shop.example/list/3",
			},
		},
		{
			name: "без пагинации — сама затравка",
			p:    Pagination{},
			seed: "https://shop.example/list",
			want: []string{"https://shop.example/list"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Expand(tt.seed)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPaginationExpand_PathWithoutPlaceholder(t *testing.T) {
	p := Pagination{Mode: PaginationPath, Pattern: "https://shop.example/list", Start: 1, MaxPages: 2}
	if _, err := p.Expand("https://shop.example/list"); err == nil {
		t.Fatal("expected error for pattern without {page}")
	}
}

// Aggregate Tests

func TestAggregate_SingleResultKeepsShape(t *testing.T) {
	single := &Result{
		Success:       true,
		StatusCode:    200,
		ExtractedData: map[string]any{"count": 42},
	}

	agg := Aggregate([]*Result{single})
	// Скаляр остаётся скаляром — зависимые шаги видят привычную форму
	if agg.ExtractedData["count"] != 42 {
		t.Errorf("expected scalar 42, got %v", agg.ExtractedData["count"])
	}
}

func TestAggregate_MergesIntoLists(t *testing.T) {
	results := []*Result{
		{Success: true, StatusCode: 200, ExtractedData: map[string]any{"title": "a", "tags": []any{"x", "y"}}},
		{Success: true, StatusCode: 200, ExtractedData: map[string]any{"title": "b", "tags": []any{"z"}}},
	}

	agg := Aggregate(results)
	if !agg.Success {
		t.Fatalf("expected success, got %q", agg.Error)
	}
	if !reflect.DeepEqual(agg.ExtractedData["title"], []any{"a", "b"}) {
		t.Errorf("unexpected titles: %v", agg.ExtractedData["title"])
	}
	// Списки конкатенируются поэлементно
	if !reflect.DeepEqual(agg.ExtractedData["tags"], []any{"x", "y", "z"}) {
		t.Errorf("unexpected tags: %v", agg.ExtractedData["tags"])
	}
}

func TestAggregate_StatusFromSuccessfulTarget(t *testing.T) {
	results := []*Result{
		{Success: false, StatusCode: 404, Error: "HTTP 404"},
		{Success: true, StatusCode: 200, ExtractedData: map[string]any{"x": "1"}},
	}

	agg := Aggregate(results)
	if !agg.Success {
		t.Fatal("expected success")
	}
	// Статус берётся с успешной цели, иначе свёртка выглядела бы провалом
	if agg.StatusCode != 200 {
		t.Errorf("expected 200, got %d", agg.StatusCode)
	}
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil)
	if agg.Success {
		t.Error("expected failure for empty input")
	}
}

// Batch Tests

func TestForEachBatch_BoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int32
	targets := make([]string, 10)
	for i := range targets {
		targets[i] = strconv.Itoa(i)
	}

	err := ForEachBatch(context.Background(), targets, 3, func(ctx context.Context, i int, target string) error {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if peak.Load() > 3 {
		t.Errorf("expected at most 3 concurrent calls, got %d", peak.Load())
	}
}

func TestForEachBatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	targets := make([]string, 10)
	err := ForEachBatch(ctx, targets, 2, func(ctx context.Context, i int, target string) error {
		calls.Add(1)
		cancel()
		return ctx.Err()
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Canceled, got %v", err)
	}
	if calls.Load() > 2 {
		t.Errorf("expected at most one batch, got %d calls", calls.Load())
	}
}
