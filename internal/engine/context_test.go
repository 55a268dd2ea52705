package engine

import (
	"reflect"
	"testing"

	"github.com/shaiso/Trawler/internal/domain"
)

func TestContext_SeedsVariables(t *testing.T) {
	ctx := NewContext("https://shop.example", map[string]any{
		"category": "books",
	})

	if v, ok := ctx.Variable("base_url"); !ok || v != "https://shop.example" {
		t.Errorf("base_url = %v, %v", v, ok)
	}
	if v, ok := ctx.Variable("category"); !ok || v != "books" {
		t.Errorf("category = %v, %v", v, ok)
	}

	want := []string{"base_url", "category"}
	if got := ctx.VariableNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("VariableNames() = %v, want %v", got, want)
	}
}

func TestContext_NoBaseURL(t *testing.T) {
	ctx := NewContext("", nil)
	if _, ok := ctx.Variable("base_url"); ok {
		t.Error("пустой base_url не должен попадать в переменные")
	}
}

func TestContext_AddResultKeepsOrderLog(t *testing.T) {
	ctx := NewContext("", nil)

	ctx.AddResult(&domain.StepResult{StepName: "list", StatusCode: 200})
	ctx.AddResult(&domain.StepResult{StepName: "detail", StatusCode: 200})
	// Повторное выполнение list: результат перезаписывается,
	// журнал порядка получает дубликат.
	ctx.AddResult(&domain.StepResult{StepName: "list", StatusCode: 500})

	if ctx.ResultCount() != 2 {
		t.Errorf("ResultCount() = %d, want 2", ctx.ResultCount())
	}

	wantOrder := []string{"list", "detail", "list"}
	if got := ctx.ExecutionOrder(); !reflect.DeepEqual(got, wantOrder) {
		t.Errorf("ExecutionOrder() = %v, want %v", got, wantOrder)
	}

	res, ok := ctx.Result("list")
	if !ok || res.StatusCode != 500 {
		t.Errorf("перезапись результата не сработала: %+v", res)
	}
}

func TestContext_StepOutput(t *testing.T) {
	ctx := NewContext("", nil)
	ctx.AddResult(&domain.StepResult{
		StepName:      "list",
		StatusCode:    200,
		ExtractedData: map[string]any{"urls": []any{"/a"}},
	})
	ctx.AddResult(&domain.StepResult{
		StepName:      "broken",
		Error:         "boom",
		ExtractedData: map[string]any{"partial": 1},
	})

	if out := ctx.StepOutput("list"); len(out) != 1 {
		t.Errorf("StepOutput(list) = %v", out)
	}

	// Для упавшего шага данные не отдаются.
	if out := ctx.StepOutput("broken"); len(out) != 0 {
		t.Errorf("StepOutput(broken) = %v, want empty", out)
	}

	// Для неизвестного шага — пустая карта, не nil-паника.
	if out := ctx.StepOutput("ghost"); out == nil || len(out) != 0 {
		t.Errorf("StepOutput(ghost) = %v, want empty map", out)
	}
}

func TestContext_Partitions(t *testing.T) {
	ctx := NewContext("", nil)
	ctx.AddResult(&domain.StepResult{StepName: "a", StatusCode: 200})
	ctx.AddResult(&domain.StepResult{StepName: "b", Error: "boom"})
	ctx.AddResult(&domain.StepResult{StepName: "c", StatusCode: 204})
	ctx.AddResult(&domain.StepResult{StepName: "d", StatusCode: 503})

	if got := ctx.SuccessfulSteps(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("SuccessfulSteps() = %v", got)
	}
	if got := ctx.FailedSteps(); !reflect.DeepEqual(got, []string{"b", "d"}) {
		t.Errorf("FailedSteps() = %v", got)
	}
}

func TestContext_Cancelled(t *testing.T) {
	ctx := NewContext("", nil)
	if ctx.Cancelled() {
		t.Error("новый контекст не должен быть отменён")
	}

	ctx.MarkCancelled()
	if !ctx.Cancelled() {
		t.Error("MarkCancelled() не отметил отмену")
	}
	if v, ok := ctx.Metadata()[MetaCancelled].(bool); !ok || !v {
		t.Error("метаданные должны содержать cancelled=true")
	}
}

func TestContext_ResultsInsertionStable(t *testing.T) {
	ctx := NewContext("", nil)
	names := []string{"e", "a", "c", "b", "d"}
	for _, n := range names {
		ctx.AddResult(&domain.StepResult{StepName: n, StatusCode: 200})
	}

	results := ctx.Results()
	for i, n := range names {
		if results[i].StepName != n {
			t.Fatalf("Results()[%d] = %s, want %s", i, results[i].StepName, n)
		}
	}
}
