// Package graph computes the per-component Topological Criticality
// Score and the maximum depth of the dependency DAG (spec.md §4.5).
// NetworkX in the original implementation only ever backed
// reachability/max-depth queries; a plain adjacency list and BFS cover
// the same ground without an external graph library (SPEC_FULL.md §6).
package graph

import (
	"github.com/hdfm-sec/prioritizer/pkg/component"
	"github.com/hdfm-sec/prioritizer/pkg/sbom"
)

// Analysis holds the results of analyzing one dependency edge list.
type Analysis struct {
	InDegree map[string]int
	MaxDepth int
}

// Analyze computes in-degree counts and the maximum BFS depth from the
// edge list's zero-in-degree roots.
func Analyze(deps []sbom.Dependency) *Analysis {
	inDegree := make(map[string]int)
	adjacency := make(map[string][]string)
	nodes := make(map[string]bool)

	for _, d := range deps {
		nodes[d.Ref] = true
		adjacency[d.Ref] = append(adjacency[d.Ref], d.DependsOn...)
		for _, child := range d.DependsOn {
			nodes[child] = true
			inDegree[child]++
		}
	}

	return &Analysis{
		InDegree: inDegree,
		MaxDepth: maxDepth(nodes, adjacency, inDegree),
	}
}

// maxDepth returns the longest shortest-path length from any
// zero-in-degree root to any node reachable from it; 0 for an empty
// graph or when no roots exist.
func maxDepth(nodes map[string]bool, adjacency map[string][]string, inDegree map[string]int) int {
	if len(nodes) == 0 {
		return 0
	}

	var roots []string
	for n := range nodes {
		if inDegree[n] == 0 {
			roots = append(roots, n)
		}
	}
	if len(roots) == 0 {
		return 0
	}

	longest := 0
	for _, root := range roots {
		depth := bfsDepth(root, adjacency)
		if depth > longest {
			longest = depth
		}
	}
	return longest
}

// bfsDepth returns the longest shortest-path distance from root to any
// node reachable from it.
func bfsDepth(root string, adjacency map[string][]string) int {
	visited := map[string]bool{root: true}
	frontier := []string{root}
	depth := 0

	for len(frontier) > 0 {
		var next []string
		for _, n := range frontier {
			for _, child := range adjacency[n] {
				if !visited[child] {
					visited[child] = true
					next = append(next, child)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		depth++
		frontier = next
	}
	return depth
}

// MaxInDegree returns D = max_v in_degree(v), 1 if the graph is empty
// (spec.md §4.5).
func (a *Analysis) MaxInDegree() int {
	d := 0
	for _, v := range a.InDegree {
		if v > d {
			d = v
		}
	}
	if d == 0 {
		return 1
	}
	return d
}

// TCS computes the Topological Criticality Score for a single
// component: tcs(c) = (normalized_degree(c) + scope_priority(c)) / 2.
func (a *Analysis) TCS(c *component.Component) float64 {
	normalizedDegree := float64(a.InDegree[c.BOMRef]) / float64(a.MaxInDegree())
	return (normalizedDegree + c.Scope.ScopePriority()) / 2.0
}
