// Package digraphutils provides utilities for directed graphs, represented as
// a mapping from node keys to edges.
package digraphutils

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/py2gomod/py2gomod/textutils"
)

// Reachable returns all nodes reachable from roots, roots included.
func Reachable[K comparable](roots []K, edges func(K) []K) map[K]struct{} {
	reachable := map[K]struct{}{}
	nodes := slices.Clone(roots)
	var newNodes []K
	for len(nodes) > 0 {
		for _, node := range nodes {
			if _, ok := reachable[node]; ok {
				continue
			}
			reachable[node] = struct{}{}
			newNodes = append(newNodes, edges(node)...)
		}
		nodes, newNodes = newNodes, nodes[:0]
	}
	return reachable
}

// DOTGraph describes a graph to render with [DOTCode].
type DOTGraph[K comparable] struct {
	Name string
	// Nodes included in the output, in order. Edges to other nodes
	// are dropped.
	Nodes []K
	Edges func(K) []K
	// Prelude is DOT code inserted at the beginning.
	Prelude string
	// NodeAttrs returns a node's attributes including brackets, or "".
	NodeAttrs func(K) string
}

// DOTCode generates graphviz DOT code to visualize g.
func DOTCode[K comparable](g DOTGraph[K]) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "digraph %v {\n", g.Name)
	if prelude := strings.TrimSpace(g.Prelude); prelude != "" {
		b.WriteString(textutils.IndentString(prelude, "  ", 1))
		b.WriteByte('\n')
	}
	nodeIDs := make(map[K]int, len(g.Nodes))
	for id, key := range g.Nodes {
		fmt.Fprintf(&b, "  %v", id)
		if g.NodeAttrs != nil {
			if attrs := g.NodeAttrs(key); attrs != "" {
				b.WriteByte(' ')
				b.WriteString(attrs)
			}
		}
		b.WriteByte('\n')
		nodeIDs[key] = id
	}
	for id, key := range g.Nodes {
		edges := slices.DeleteFunc(slices.Clone(g.Edges(key)), func(k K) bool {
			_, ok := nodeIDs[k]
			return !ok
		})
		if len(edges) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %v -> {", id)
		for i, e := range edges {
			if i != 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%v", nodeIDs[e])
		}
		b.WriteString("}\n")
	}
	b.WriteString("}\n")
	return b.Bytes()
}
