package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Trawler/internal/domain"
)

func TestBuildGraph_SimpleChain(t *testing.T) {
	steps := []domain.StepDef{
		{Name: "list"},
		{Name: "detail", InputFrom: "list.urls"},
		{Name: "enrich", InputFrom: "detail.ids"},
	}

	g, err := BuildGraph(steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Size())
	}

	want := []string{"list", "detail", "enrich"}
	if len(g.Order) != len(want) {
		t.Fatalf("order length = %d, want %d", len(g.Order), len(want))
	}
	for i, name := range want {
		if g.Order[i] != name {
			t.Errorf("Order[%d] = %s, want %s", i, g.Order[i], name)
		}
	}

	detail := g.Step("detail")
	if len(detail.DependsOn) != 1 || detail.DependsOn[0].Name != "list" {
		t.Error("detail should depend on list")
	}
}

func TestBuildGraph_Diamond(t *testing.T) {
	// list → prices → merge
	// list → stock  → merge
	steps := []domain.StepDef{
		{Name: "list"},
		{Name: "prices", InputFrom: "list.urls"},
		{Name: "stock", InputFrom: "list.urls"},
		{Name: "merge", InputFrom: "prices.items", SkipIf: "{{stock.count}} == 0"},
	}

	g, err := BuildGraph(steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merge := g.Step("merge")
	if len(merge.DependsOn) != 2 {
		t.Fatalf("merge should have 2 dependencies, got %d", len(merge.DependsOn))
	}
	if merge.InDegree != 2 {
		t.Errorf("merge InDegree = %d, want 2", merge.InDegree)
	}
}

// TestBuildGraph_OrderRespectsEdges: каждое ребро уважает позиции в порядке.
func TestBuildGraph_OrderRespectsEdges(t *testing.T) {
	steps := []domain.StepDef{
		{Name: "report", InputFrom: "merge.rows"},
		{Name: "merge", InputFrom: "detail.items", RunOnlyIf: "{{list.count}} > 0"},
		{Name: "detail", InputFrom: "list.urls"},
		{Name: "list"},
	}

	g, err := BuildGraph(steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int, len(g.Order))
	for i, name := range g.Order {
		pos[name] = i
	}

	for _, node := range g.Nodes {
		for _, dep := range node.DependsOn {
			if pos[dep.Name] >= pos[node.Name] {
				t.Errorf("edge %s -> %s violates order: %v", dep.Name, node.Name, g.Order)
			}
		}
	}
}

// TestBuildGraph_DeterministicOrder: при равных условиях порядок
// совпадает с порядком объявления и воспроизводим между вызовами.
func TestBuildGraph_DeterministicOrder(t *testing.T) {
	steps := []domain.StepDef{
		{Name: "c"},
		{Name: "a"},
		{Name: "b"},
	}

	first, err := BuildGraph(steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"c", "a", "b"}
	for i, name := range want {
		if first.Order[i] != name {
			t.Fatalf("Order = %v, want %v", first.Order, want)
		}
	}

	for i := 0; i < 10; i++ {
		g, err := BuildGraph(steps)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := range want {
			if g.Order[i] != first.Order[i] {
				t.Fatalf("order is not reproducible: %v vs %v", g.Order, first.Order)
			}
		}
	}
}

// TestBuildGraph_ConditionRefs: ссылка на шаг в условии создаёт ребро,
// ссылка на глобальную переменную — нет.
func TestBuildGraph_ConditionRefs(t *testing.T) {
	steps := []domain.StepDef{
		{Name: "check"},
		{Name: "detail", SkipIf: "{{check.count}} == 0", RunOnlyIf: "{{page}} > 1"},
	}

	g, err := BuildGraph(steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	detail := g.Step("detail")
	if len(detail.DependsOn) != 1 || detail.DependsOn[0].Name != "check" {
		t.Fatalf("detail should depend only on check, got %v", detail.DependsOn)
	}
}

func TestBuildGraph_DuplicateNames(t *testing.T) {
	steps := []domain.StepDef{
		{Name: "list"},
		{Name: "list"},
		{Name: "detail"},
		{Name: "detail"},
	}

	_, err := BuildGraph(steps)
	if !errors.Is(err, ErrDuplicateStepName) {
		t.Fatalf("expected ErrDuplicateStepName, got %v", err)
	}

	// Все дубликаты должны быть названы в одной ошибке.
	if !strings.Contains(err.Error(), "list") || !strings.Contains(err.Error(), "detail") {
		t.Errorf("error should name all duplicates: %v", err)
	}
}

func TestBuildGraph_MissingDependency(t *testing.T) {
	steps := []domain.StepDef{
		{Name: "detail", InputFrom: "lst.urls"},
	}

	_, err := BuildGraph(steps)
	if !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
	if !strings.Contains(err.Error(), "detail") || !strings.Contains(err.Error(), "lst") {
		t.Errorf("error should name both steps: %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Field != "input_from" {
		t.Errorf("Field = %q, want input_from", verr.Field)
	}
}

// TestBuildGraph_MutualCycle: A и B ссылаются друг на друга через input_from.
func TestBuildGraph_MutualCycle(t *testing.T) {
	steps := []domain.StepDef{
		{Name: "a", InputFrom: "b.urls"},
		{Name: "b", InputFrom: "a.urls"},
	}

	_, err := BuildGraph(steps)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}

	// Ошибка называет оба шага цикла.
	if !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Errorf("cycle error should name both steps: %v", err)
	}

	var cerr *CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CycleError, got %T", err)
	}
	assertValidCycle(t, cerr.Path, steps)
}

func TestBuildGraph_SelfDependency(t *testing.T) {
	steps := []domain.StepDef{
		{Name: "list", InputFrom: "list.urls"},
	}

	_, err := BuildGraph(steps)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}

	var cerr *CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CycleError, got %T", err)
	}
	if len(cerr.Path) != 2 || cerr.Path[0] != "list" || cerr.Path[1] != "list" {
		t.Errorf("self-dependency path = %v, want [list list]", cerr.Path)
	}
}

func TestBuildGraph_LongCycle(t *testing.T) {
	// Цикл из трёх шагов за валидным префиксом.
	steps := []domain.StepDef{
		{Name: "seed"},
		{Name: "a", InputFrom: "c.urls"},
		{Name: "b", InputFrom: "a.urls"},
		{Name: "c", InputFrom: "b.urls"},
	}

	_, err := BuildGraph(steps)
	var cerr *CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	assertValidCycle(t, cerr.Path, steps)
}

func TestBuildGraph_EmptySteps(t *testing.T) {
	if _, err := BuildGraph(nil); !errors.Is(err, ErrEmptySteps) {
		t.Fatalf("expected ErrEmptySteps, got %v", err)
	}
}

func TestBuildGraph_EmptyStepName(t *testing.T) {
	steps := []domain.StepDef{{Name: "list"}, {Name: ""}}
	if _, err := BuildGraph(steps); !errors.Is(err, ErrEmptyStepName) {
		t.Fatalf("expected ErrEmptyStepName, got %v", err)
	}
}

// assertValidCycle проверяет, что путь — настоящий цикл:
// замкнут и каждая пара соседей связана ребром зависимости.
func assertValidCycle(t *testing.T, path []string, steps []domain.StepDef) {
	t.Helper()

	if len(path) < 2 {
		t.Fatalf("cycle path too short: %v", path)
	}
	if path[0] != path[len(path)-1] {
		t.Fatalf("cycle path is not closed: %v", path)
	}

	byName := make(map[string]*domain.StepDef)
	for i := range steps {
		byName[steps[i].Name] = &steps[i]
	}

	for i := 0; i+1 < len(path); i++ {
		step, ok := byName[path[i]]
		if !ok {
			t.Fatalf("cycle path names unknown step %q", path[i])
		}
		// Путь идёт по DependsOn: path[i] зависит от path[i+1].
		dep := step.InputFrom
		if j := strings.IndexByte(dep, '.'); j >= 0 {
			dep = dep[:j]
		}
		if dep != path[i+1] {
			t.Errorf("path edge %s -> %s does not match input_from %q",
				path[i], path[i+1], step.InputFrom)
		}
	}
}
