package registry

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"
)

// ExecutionOrder computes a total order over the registered plugins in which
// every plugin appears strictly after all of its declared dependencies.
//
// The order is produced by Kahn's algorithm: plugins whose remaining
// dependencies are all satisfied form the ready set, and the ready plugin
// with the lowest numeric priority is selected next (ties broken by name).
// The result is a pure function of the registered set; registration order
// never matters.
//
// A dependency on an unregistered name and a dependency cycle (including a
// self-dependency) are both fatal: an error is returned and no partial order
// is produced. An empty registry yields an empty order.
func (r *Registry) ExecutionOrder() ([]string, error) {
	if len(r.plugins) == 0 {
		return []string{}, nil
	}

	inDegree := make(map[string]int, len(r.plugins))
	dependents := make(map[string][]string, len(r.plugins))

	for name := range r.plugins {
		inDegree[name] = 0
	}

	for name, p := range r.plugins {
		for _, dep := range p.Dependencies() {
			if _, exists := r.plugins[dep]; !exists {
				return nil, NewPermanentError(
					fmt.Sprintf("plugin %s depends on unregistered plugin %s", name, dep), nil).
					WithCode(ErrCodeMissingDependency).WithPlugin(name)
			}
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	ready := &priorityQueue{registry: r}
	heap.Init(ready)
	for name, degree := range inDegree {
		if degree == 0 {
			heap.Push(ready, name)
		}
	}

	order := make([]string, 0, len(r.plugins))
	for ready.Len() > 0 {
		name := heap.Pop(ready).(string)
		order = append(order, name)

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	// Fewer ordered plugins than registered means the leftover nodes all
	// sit on or behind a cycle.
	if len(order) != len(r.plugins) {
		return nil, NewPermanentError(
			fmt.Sprintf("circular dependency detected among plugins: %s",
				strings.Join(r.unorderedNames(order), ", ")), nil).
			WithCode(ErrCodeCircularDependency)
	}

	return order, nil
}

// unorderedNames returns the sorted plugin names missing from the partial
// order.
func (r *Registry) unorderedNames(order []string) []string {
	ordered := make(map[string]bool, len(order))
	for _, name := range order {
		ordered[name] = true
	}
	var remaining []string
	for name := range r.plugins {
		if !ordered[name] {
			remaining = append(remaining, name)
		}
	}
	sort.Strings(remaining)
	return remaining
}

// priorityQueue is a min-heap of plugin names ordered by plugin priority,
// then name for determinism.
type priorityQueue struct {
	names    []string
	registry *Registry
}

func (q *priorityQueue) Len() int { return len(q.names) }

func (q *priorityQueue) Less(i, j int) bool {
	pi := q.registry.plugins[q.names[i]].Priority()
	pj := q.registry.plugins[q.names[j]].Priority()
	if pi != pj {
		return pi < pj
	}
	return q.names[i] < q.names[j]
}

func (q *priorityQueue) Swap(i, j int) {
	q.names[i], q.names[j] = q.names[j], q.names[i]
}

func (q *priorityQueue) Push(x interface{}) {
	q.names = append(q.names, x.(string))
}

func (q *priorityQueue) Pop() interface{} {
	old := q.names
	n := len(old)
	name := old[n-1]
	q.names = old[:n-1]
	return name
}
