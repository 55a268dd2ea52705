package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shaiso/Trawler/internal/domain"
)

// testView собирает контекст с типовыми данными для тестов резолвера.
func testView(t *testing.T) *Context {
	t.Helper()

	ctx := NewContext("https://shop.example", map[string]any{
		"category": "books",
		"page":     2,
	})
	ctx.AddResult(&domain.StepResult{
		StepName:   "list",
		StatusCode: 200,
		ExtractedData: map[string]any{
			"urls":  []any{"/a", "/b"},
			"count": 2,
			"meta":  map[string]any{"next": "/page/3"},
			"items": []any{
				map[string]any{"id": "x1"},
				map[string]any{"id": "x2"},
			},
		},
	})
	ctx.AddResult(&domain.StepResult{
		StepName: "broken",
		Error:    "connection refused",
	})
	return ctx
}

func TestResolver_PlainStringUnchanged(t *testing.T) {
	r := NewResolver(testView(t))

	plain := "https://shop.example/books?page=2"
	got, err := r.Resolve(plain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != plain {
		t.Errorf("Resolve() = %v, want unchanged input", got)
	}

	// Идемпотентность: повторный резолв результата ничего не меняет.
	again, err := r.Resolve(got.(string))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != got {
		t.Errorf("second Resolve() = %v, want %v", again, got)
	}
}

func TestResolver_GlobalVariable(t *testing.T) {
	r := NewResolver(testView(t))

	got, err := r.Resolve("{{category}}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "books" {
		t.Errorf("Resolve() = %v, want books", got)
	}
}

func TestResolver_UnknownVariableListsAvailable(t *testing.T) {
	r := NewResolver(testView(t))

	_, err := r.Resolve("{{missing}}")
	if !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("expected ErrUnknownVariable, got %v", err)
	}

	// Сообщение перечисляет доступные переменные.
	for _, name := range []string{"base_url", "category", "page"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should list %q: %v", name, err)
		}
	}
}

func TestResolver_StepPathNavigation(t *testing.T) {
	r := NewResolver(testView(t))

	tests := []struct {
		tmpl string
		want any
	}{
		{"{{list.count}}", 2},
		{"{{list.urls.0}}", "/a"},
		{"{{list.urls.1}}", "/b"},
		{"{{list.meta.next}}", "/page/3"},
		{"{{list.items.1.id}}", "x2"},
	}

	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			got, err := r.Resolve(tt.tmpl)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.tmpl, got, tt.want)
			}
		})
	}
}

// TestResolver_RawSingleReference: шаблон из одной ссылки отдаёт
// сырое значение — список остаётся списком.
func TestResolver_RawSingleReference(t *testing.T) {
	r := NewResolver(testView(t))

	got, err := r.Resolve("{{list.urls}}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	urls, ok := got.([]any)
	if !ok {
		t.Fatalf("Resolve() = %T, want []any", got)
	}
	if !reflect.DeepEqual(urls, []any{"/a", "/b"}) {
		t.Errorf("urls = %v, want [/a /b]", urls)
	}
}

func TestResolver_EmbeddedReferences(t *testing.T) {
	r := NewResolver(testView(t))

	got, err := r.Resolve("{{base_url}}/{{category}}?page={{page}}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://shop.example/books?page=2" {
		t.Errorf("Resolve() = %v", got)
	}
}

// TestResolver_EmbeddedRefStringForm: ссылка внутри строки подставляет
// строковую форму, даже если значение — список.
func TestResolver_EmbeddedRefStringForm(t *testing.T) {
	r := NewResolver(testView(t))

	got, err := r.Resolve("urls: {{list.urls}}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := got.(string)
	if !ok {
		t.Fatalf("Resolve() = %T, want string", got)
	}
	if !strings.HasPrefix(s, "urls: ") {
		t.Errorf("Resolve() = %q", s)
	}
}

func TestResolver_StepNotExecuted(t *testing.T) {
	r := NewResolver(testView(t))

	_, err := r.Resolve("{{future.urls}}")
	if !errors.Is(err, ErrStepNotExecuted) {
		t.Fatalf("expected ErrStepNotExecuted, got %v", err)
	}
	if !strings.Contains(err.Error(), "future") {
		t.Errorf("error should name the step: %v", err)
	}
}

func TestResolver_StepFailed(t *testing.T) {
	r := NewResolver(testView(t))

	_, err := r.Resolve("{{broken.urls}}")
	if !errors.Is(err, ErrStepFailed) {
		t.Fatalf("expected ErrStepFailed, got %v", err)
	}

	// "не выполнялся" и "упал" — разные ошибки.
	if errors.Is(err, ErrStepNotExecuted) {
		t.Error("failed step must not be reported as not executed")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error should include the step failure: %v", err)
	}
}

func TestResolver_BadPath(t *testing.T) {
	r := NewResolver(testView(t))

	tests := []struct {
		name string
		tmpl string
	}{
		{"неизвестное поле", "{{list.missing}}"},
		{"индекс за границей", "{{list.urls.5}}"},
		{"отрицательный индекс", "{{list.urls.-1}}"},
		{"нечисловой индекс списка", "{{list.urls.first}}"},
		{"навигация сквозь скаляр", "{{list.count.deeper}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.tmpl)
			if !errors.Is(err, ErrBadPath) {
				t.Fatalf("expected ErrBadPath, got %v", err)
			}
		})
	}
}

func TestResolver_ResolveMap(t *testing.T) {
	r := NewResolver(testView(t))

	cfg := map[string]any{
		"url":     "{{base_url}}/search",
		"page":    "{{page}}",
		"limit":   50,
		"headers": map[string]any{"Referer": "{{base_url}}"},
		"paths":   []any{"{{list.urls.0}}", "/static"},
	}

	got, err := r.ResolveMap(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["url"] != "https://shop.example/search" {
		t.Errorf("url = %v", got["url"])
	}
	// Одиночная ссылка сохраняет тип значения.
	if got["page"] != 2 {
		t.Errorf("page = %v (%T), want 2", got["page"], got["page"])
	}
	// Нестроковые листья не трогаем.
	if got["limit"] != 50 {
		t.Errorf("limit = %v", got["limit"])
	}
	headers := got["headers"].(map[string]any)
	if headers["Referer"] != "https://shop.example" {
		t.Errorf("Referer = %v", headers["Referer"])
	}
	paths := got["paths"].([]any)
	if paths[0] != "/a" || paths[1] != "/static" {
		t.Errorf("paths = %v", paths)
	}
}

// TestResolver_ListDetailScenario: шаг detail получает список целей
// из данных шага list.
func TestResolver_ListDetailScenario(t *testing.T) {
	ctx := NewContext("https://shop.example", nil)
	ctx.AddResult(&domain.StepResult{
		StepName:      "list",
		ExtractedData: map[string]any{"urls": []any{"/a", "/b"}},
	})
	r := NewResolver(ctx)

	got, err := r.Resolve("{{list.urls}}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []any{"/a", "/b"}) {
		t.Errorf("Resolve() = %v, want [/a /b]", got)
	}
}

func TestStringify_Floats(t *testing.T) {
	// JSON-числа приходят как float64 и не должны печататься
	// с хвостом ".000000".
	if s := stringify(float64(19)); s != "19" {
		t.Errorf("stringify(19.0) = %q, want 19", s)
	}
	if s := stringify(19.5); s != "19.5" {
		t.Errorf("stringify(19.5) = %q", s)
	}
}
