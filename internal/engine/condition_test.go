package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shaiso/Trawler/internal/domain"
)

// testEvaluator собирает Evaluator с типовыми данными и тихим логгером.
func testEvaluator(t *testing.T) *Evaluator {
	t.Helper()

	ctx := NewContext("https://shop.example", map[string]any{
		"category": "books",
		"debug":    "yes",
		"limit":    0,
	})
	ctx.AddResult(&domain.StepResult{
		StepName:   "check",
		StatusCode: 200,
		ExtractedData: map[string]any{
			"count":  0,
			"total":  float64(17),
			"status": "success",
			"urls":   []any{"/a", "/b"},
			"none":   []any{},
			"flags":  map[string]any{"ready": true},
		},
	})
	ctx.AddResult(&domain.StepResult{
		StepName: "failed",
		Error:    "boom",
	})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEvaluator(ctx, log)
}

func TestEvaluator_Exists(t *testing.T) {
	e := testEvaluator(t)

	tests := []struct {
		cond string
		want bool
	}{
		{"{{category}} exists", true},
		{"{{absent}} exists", false},
		{"{{check.count}} exists", true},
		{"{{check.missing}} exists", false},
		{"{{failed.data}} exists", false},
		{"{{later.count}} exists", false},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			if got := e.Evaluate(tt.cond); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluator_Empty(t *testing.T) {
	e := testEvaluator(t)

	tests := []struct {
		cond string
		want bool
	}{
		{"{{check.none}} empty", true},
		{"{{check.urls}} empty", false},
		{"{{check.urls}} !empty", true},
		{"{{check.none}} !empty", false},
		// Отсутствующее значение считается пустым.
		{"{{absent}} empty", true},
		{"{{absent}} !empty", false},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			if got := e.Evaluate(tt.cond); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluator_Comparisons(t *testing.T) {
	e := testEvaluator(t)

	tests := []struct {
		cond string
		want bool
	}{
		// Сценарий пропуска пустого списка.
		{"{{check.count}} == 0", true},
		{"{{check.count}} != 0", false},
		// Числа сравниваются по значению независимо от типа.
		{"{{check.total}} == 17", true},
		{"{{check.total}} >= 17", true},
		{"{{check.total}} > 16", true},
		{"{{check.total}} < 16", false},
		{"{{check.total}} <= 17.5", true},
		// Строковые литералы в обоих видах кавычек.
		{"{{check.status}} == 'success'", true},
		{`{{check.status}} == "success"`, true},
		{"{{check.status}} != 'error'", true},
		// Глобальная переменная против литерала.
		{"{{category}} == 'books'", true},
		// Строки упорядочены лексикографически.
		{"'b' > 'a'", true},
		{"'a' >= 'b'", false},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			if got := e.Evaluate(tt.cond); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluator_Truthiness(t *testing.T) {
	e := testEvaluator(t)

	tests := []struct {
		cond string
		want bool
	}{
		{"{{debug}}", true},           // "yes"
		{"{{check.status}}", true},    // "success"
		{"{{category}}", false},       // "books" не в списке истинных
		{"{{limit}}", false},          // 0
		{"{{check.total}}", true},     // 17
		{"{{check.urls}}", true},      // непустой список
		{"{{check.none}}", false},     // пустой список
		{"{{check.flags}}", true},     // непустая карта
		{"{{check.flags.ready}}", true},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			if got := e.Evaluate(tt.cond); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

// TestEvaluator_FailOpen: ошибка резолва даёт false, а не панику.
func TestEvaluator_FailOpen(t *testing.T) {
	e := testEvaluator(t)

	tests := []string{
		"",
		"{{absent}}",
		"{{absent}} == 1",
		"1 == {{absent}}",
		"{{failed.count}} > 0",
		"{{later.count}} == 0",
	}

	for _, cond := range tests {
		t.Run(cond, func(t *testing.T) {
			if got := e.Evaluate(cond); got != false {
				t.Errorf("Evaluate(%q) = true, want false", cond)
			}
		})
	}
}

// TestEvaluator_Total: произвольный мусор на входе не роняет Evaluate.
func TestEvaluator_Total(t *testing.T) {
	e := testEvaluator(t)

	garbage := []string{
		"{{",
		"}}",
		"{{}}",
		"{{ }}",
		"a == == b",
		"== b",
		"a ==",
		">",
		"'unclosed",
		"{{check.urls.xx}} == 1",
		"\x00\x01",
		"условие по-русски",
		"{{check.urls}} == {{check.flags}}",
	}

	for _, cond := range garbage {
		// Достаточно того, что вызов не паникует и возвращает bool.
		_ = e.Evaluate(cond)
	}
}

// TestEvaluator_OrderingOnCollections: упорядочивающее сравнение
// списка или карты — ошибка типов, ответ false без паники.
func TestEvaluator_OrderingOnCollections(t *testing.T) {
	e := testEvaluator(t)

	tests := []string{
		"{{check.urls}} > 1",
		"{{check.flags}} <= 3",
		"1 < {{check.urls}}",
	}

	for _, cond := range tests {
		t.Run(cond, func(t *testing.T) {
			if got := e.Evaluate(cond); got != false {
				t.Errorf("Evaluate(%q) = true, want false", cond)
			}
		})
	}
}

// TestEvaluator_CollectionsEqual: == на списках сравнивает содержимое
// и не паникует на несравнимых типах.
func TestEvaluator_CollectionsEqual(t *testing.T) {
	e := testEvaluator(t)

	if got := e.Evaluate("{{check.urls}} == {{check.urls}}"); got != true {
		t.Error("список должен быть равен самому себе")
	}
	if got := e.Evaluate("{{check.urls}} != {{check.none}}"); got != true {
		t.Error("разные списки должны быть неравны")
	}
}

func TestEvaluator_OperatorPriority(t *testing.T) {
	e := testEvaluator(t)

	// ">=" должен распознаваться раньше ">", иначе правый операнд
	// получил бы лишний "=".
	if got := e.Evaluate("{{check.total}} >= 17"); got != true {
		t.Error(`">=" разобран неверно`)
	}
	if got := e.Evaluate("{{check.count}} <= 0"); got != true {
		t.Error(`"<=" разобран неверно`)
	}
}

// TestEvaluator_CaseInsensitiveTruthy: строковая истинность
// не зависит от регистра.
func TestEvaluator_CaseInsensitiveTruthy(t *testing.T) {
	ctx := NewContext("", map[string]any{
		"a": "TRUE",
		"b": "Yes",
		"c": "SUCCESS",
		"d": "no",
	})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewEvaluator(ctx, log)

	for cond, want := range map[string]bool{
		"{{a}}": true,
		"{{b}}": true,
		"{{c}}": true,
		"{{d}}": false,
	} {
		if got := e.Evaluate(cond); got != want {
			t.Errorf("Evaluate(%q) = %v, want %v", cond, got, want)
		}
	}
}
