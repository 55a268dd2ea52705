package engine

import (
	"fmt"
	"strings"

	"github.com/shaiso/Trawler/internal/domain"
)

// Node — узел графа зависимостей.
type Node struct {
	// Step — определение шага из JobSpec.
	Step *domain.StepDef

	// Name — имя шага (дублирует Step.Name для удобства).
	Name string

	// InDegree — количество входящих рёбер (зависимостей).
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*Node

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []*Node
}

// Graph — граф зависимостей шагов job.
//
// Рёбра выводятся из спецификации, а не задаются явно:
// input_from и ссылки {{step.field}} в условиях создают ребро
// "источник → зависимый шаг".
type Graph struct {
	// Nodes — все узлы графа (имя шага → Node).
	Nodes map[string]*Node

	// Order — имена шагов в порядке выполнения.
	Order []string

	// names — имена шагов в порядке объявления.
	// Нужен для детерминизма обхода: порядок в Order при равных
	// условиях совпадает с порядком объявления шагов.
	names []string
}

// BuildGraph строит граф зависимостей и порядок выполнения.
//
// Ошибки построения фатальны для всего запуска:
// - дубликаты имён (в ошибке перечислены все);
// - зависимость от несуществующего шага;
// - цикл (в ошибке приведён конкретный путь цикла).
func BuildGraph(steps []domain.StepDef) (*Graph, error) {
	if len(steps) == 0 {
		return nil, ErrEmptySteps
	}

	// 1. Проверяем имена до построения графа.
	if err := checkNames(steps); err != nil {
		return nil, err
	}

	g := &Graph{
		Nodes: make(map[string]*Node, len(steps)),
		names: make([]string, 0, len(steps)),
	}

	// 2. Создаём узлы в порядке объявления.
	for i := range steps {
		step := &steps[i]
		g.Nodes[step.Name] = &Node{Step: step, Name: step.Name}
		g.names = append(g.names, step.Name)
	}

	// 3. Выводим рёбра из input_from и условий.
	for _, name := range g.names {
		if err := g.linkStep(g.Nodes[name]); err != nil {
			return nil, err
		}
	}

	// 4. Топологическая сортировка; недостача в выводе означает цикл.
	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}
	g.Order = order

	return g, nil
}

// checkNames проверяет непустоту и уникальность имён шагов.
// В ошибке о дубликатах перечисляются все повторившиеся имена сразу.
func checkNames(steps []domain.StepDef) error {
	seen := make(map[string]int, len(steps))
	var dups []string

	for i := range steps {
		name := steps[i].Name
		if name == "" {
			return NewValidationError("", "name",
				fmt.Sprintf("step %d has empty name", i), ErrEmptyStepName)
		}
		seen[name]++
		if seen[name] == 2 {
			dups = append(dups, name)
		}
	}

	if len(dups) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateStepName, strings.Join(dups, ", "))
	}
	return nil
}

// linkStep выводит зависимости одного шага.
func (g *Graph) linkStep(node *Node) error {
	step := node.Step

	// input_from: префикс до первой точки — имя шага-источника.
	if step.InputFrom != "" {
		depName := step.InputFrom
		if i := strings.IndexByte(depName, '.'); i >= 0 {
			depName = depName[:i]
		}
		dep, exists := g.Nodes[depName]
		if !exists {
			return NewValidationError(step.Name, "input_from",
				fmt.Sprintf("depends on non-existent step %q", depName), ErrMissingDependency)
		}
		g.addEdge(dep, node)
	}

	// Ссылки {{dep}} и {{dep.field}} в условиях тоже создают рёбра,
	// но только когда первый сегмент — объявленный шаг. Остальные
	// ссылки — глобальные переменные, они резолвятся позже.
	for _, cond := range []string{step.SkipIf, step.RunOnlyIf} {
		for _, ref := range extractRefs(cond) {
			depName := ref
			if i := strings.IndexByte(depName, '.'); i >= 0 {
				depName = depName[:i]
			}
			if dep, exists := g.Nodes[depName]; exists {
				g.addEdge(dep, node)
			}
		}
	}

	return nil
}

// addEdge добавляет ребро from → to.
// Дубликаты рёбер игнорируются, чтобы не задвоить InDegree.
func (g *Graph) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.Name == from.Name {
			return
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
//
// Очередь FIFO засеивается узлами без зависимостей в порядке объявления,
// поэтому при равных условиях порядок выполнения воспроизводим.
func (g *Graph) topologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	for name, node := range g.Nodes {
		inDegree[name] = node.InDegree
	}

	queue := make([]*Node, 0, len(g.Nodes))
	for _, name := range g.names {
		if inDegree[name] == 0 {
			queue = append(queue, g.Nodes[name])
		}
	}

	order := make([]string, 0, len(g.Nodes))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node.Name)

		for _, dependent := range node.Dependents {
			inDegree[dependent.Name]--
			if inDegree[dependent.Name] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	// Не все узлы вышли — в оставшейся части графа есть цикл.
	if len(order) != len(g.Nodes) {
		emitted := make(map[string]bool, len(order))
		for _, name := range order {
			emitted[name] = true
		}
		return nil, &CycleError{Path: g.findCyclePath(emitted)}
	}

	return order, nil
}

// dfsFrame — кадр явного стека обхода в findCyclePath.
type dfsFrame struct {
	node *Node
	next int // индекс следующей зависимости для обхода
}

// findCyclePath ищет конкретный путь цикла среди узлов, не вошедших
// в топологический порядок. Обход в глубину сделан итеративно, на
// явном стеке: глубина графа не упирается в стек вызовов.
//
// Путь идёт по рёбрам DependsOn, то есть читается как
// "a зависит от b, b зависит от a": ["a", "b", "a"].
// Самозависимость даёт путь из двух элементов: ["a", "a"].
func (g *Graph) findCyclePath(emitted map[string]bool) []string {
	const (
		white = iota // не посещён
		grey         // в текущем пути
		black        // обработан, циклов через него нет
	)
	color := make(map[string]int, len(g.Nodes))

	for _, start := range g.names {
		if emitted[start] || color[start] != white {
			continue
		}

		stack := []dfsFrame{{node: g.Nodes[start]}}
		path := []string{start}
		color[start] = grey

		for len(stack) > 0 {
			frame := &stack[len(stack)-1]

			if frame.next < len(frame.node.DependsOn) {
				dep := frame.node.DependsOn[frame.next]
				frame.next++

				if emitted[dep.Name] {
					continue
				}
				switch color[dep.Name] {
				case grey:
					// Нашли серый узел в текущем пути — цикл замкнулся.
					for i, name := range path {
						if name == dep.Name {
							cycle := make([]string, 0, len(path)-i+1)
							cycle = append(cycle, path[i:]...)
							return append(cycle, dep.Name)
						}
					}
				case white:
					color[dep.Name] = grey
					stack = append(stack, dfsFrame{node: dep})
					path = append(path, dep.Name)
				}
			} else {
				color[frame.node.Name] = black
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
			}
		}
	}

	// Сюда не попадаем: вызов происходит только при обнаруженном цикле.
	return nil
}

// Step возвращает узел по имени шага.
func (g *Graph) Step(name string) *Node {
	return g.Nodes[name]
}

// Size возвращает количество узлов графа.
func (g *Graph) Size() int {
	return len(g.Nodes)
}
