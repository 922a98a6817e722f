package schema

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/calljmp/cli/pkg/types"
)

// ForeignKeyGraph is a directed graph over lowercased table names. An edge
// parent -> child exists when child declares a foreign key referencing
// parent. Walking from a table towards its children yields the tables whose
// constraint metadata breaks when that table is rewritten via rename-swap.
type ForeignKeyGraph struct {
	nodes    map[string]bool
	children map[string]map[string]bool
	parents  map[string]map[string]bool
}

// NewForeignKeyGraph returns an empty graph.
func NewForeignKeyGraph() *ForeignKeyGraph {
	return &ForeignKeyGraph{
		nodes:    make(map[string]bool),
		children: make(map[string]map[string]bool),
		parents:  make(map[string]map[string]bool),
	}
}

// AddTable registers a table with no edges.
func (g *ForeignKeyGraph) AddTable(name string) {
	g.nodes[strings.ToLower(name)] = true
}

// AddReference adds a parent -> child edge. Self references are ignored;
// a table rewritten in place rebinds its own constraints.
func (g *ForeignKeyGraph) AddReference(parent, child string) {
	p, c := strings.ToLower(parent), strings.ToLower(child)
	if p == c {
		return
	}
	g.nodes[p] = true
	g.nodes[c] = true
	if g.children[p] == nil {
		g.children[p] = make(map[string]bool)
	}
	g.children[p][c] = true
	if g.parents[c] == nil {
		g.parents[c] = make(map[string]bool)
	}
	g.parents[c][p] = true
}

// Edges returns all parent -> child pairs in deterministic order.
func (g *ForeignKeyGraph) Edges() [][2]string {
	var edges [][2]string
	for p, cs := range g.children {
		for c := range cs {
			edges = append(edges, [2]string{p, c})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// Dependents returns every table transitively referencing the given table,
// excluding the table itself, in sorted order.
func (g *ForeignKeyGraph) Dependents(table string) []string {
	start := strings.ToLower(table)
	seen := map[string]bool{start: true}
	queue := []string{start}
	var result []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for child := range g.children[cur] {
			if seen[child] {
				continue
			}
			seen[child] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	sort.Strings(result)
	return result
}

// TopoOrder returns the given tables ordered so that referenced tables come
// before the tables referencing them. Ties are broken lexicographically.
// Cycles are tolerated: when no table in the remaining set is free of
// incoming edges, the lexicographically smallest remaining table is emitted,
// which flattens each strongly connected component in name order.
func (g *ForeignKeyGraph) TopoOrder(tables []string) []string {
	indegree := make(map[string]int, len(tables))
	inSet := make(map[string]bool, len(tables))
	for _, t := range tables {
		inSet[strings.ToLower(t)] = true
	}
	for t := range inSet {
		indegree[t] = 0
	}
	for t := range inSet {
		for p := range g.parents[t] {
			if inSet[p] {
				indegree[t]++
			}
		}
	}

	done := make(map[string]bool, len(inSet))
	order := make([]string, 0, len(inSet))
	for len(order) < len(inSet) {
		var ready []string
		for t, d := range indegree {
			if !done[t] && d == 0 {
				ready = append(ready, t)
			}
		}
		if len(ready) == 0 {
			// Cycle: fall back to lexicographic order within the SCC.
			for t := range indegree {
				if !done[t] {
					ready = append(ready, t)
				}
			}
		}
		sort.Strings(ready)
		next := ready[0]
		done[next] = true
		order = append(order, next)
		for c := range g.children[next] {
			if inSet[c] && !done[c] {
				indegree[c]--
			}
		}
	}
	return order
}

// BuildForeignKeyGraph introspects every user table of the database and
// assembles the foreign-key graph.
func BuildForeignKeyGraph(db *sql.DB) (*ForeignKeyGraph, error) {
	tables, err := ListObjects(db, types.KindTable)
	if err != nil {
		return nil, err
	}
	g := NewForeignKeyGraph()
	for _, t := range tables {
		g.AddTable(t.Name)
		keys, err := ForeignKeys(db, t.Name)
		if err != nil {
			return nil, err
		}
		for _, fk := range keys {
			g.AddReference(fk.ReferencedTable, t.Name)
		}
	}
	return g, nil
}

// reversed returns a copy of the slice in reverse order.
func reversed(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
