// Codec dependencies can be represented as a directed graph. Each
// node represents a single codec declaration and points to the codecs
// it is built from.

package converter

import (
	"fmt"
	"html"
	"iter"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/py2gomod/py2gomod/digraphutils"
	"github.com/py2gomod/py2gomod/ir"
)

type convNode struct {
	typ        ir.ParameterType
	debugNames []string // see convInfo.debugNames
	code       []byte
	deps       []convInfo
	err        error
	incomplete bool
}

type convGraph struct {
	// All valid nodes. The node's err and incomplete
	// fields are always nil and false respectively.
	nodes map[convKey]convNode
	// All nodes with errors.
	errors map[convKey]error
	// Includes incomplete and error nodes. Meant
	// for debugging/testing.
	debugNodes map[convKey]convNode
	// Initial seeds passed into the generator.
	debugSeeds []convInfo
}

// calcNodeFunc is injected into makeConvGraph to calculate a single
// node. Called with the same parameters, it must always yield the same
// results.
type calcNodeFunc func(ci convInfo) (code []byte, deps []convInfo, err error)

// makeConvGraph calculates all nodes reachable from seeds.
//
// A node whose calculation fails is recorded as an error origin. It and
// every node depending on it, directly or not, is marked incomplete.
// After the traversal, only complete nodes reachable from the seeds
// through complete nodes are kept.
//
// Self-references in dependencies are dropped.
func makeConvGraph(seeds []convInfo, calcNode calcNodeFunc) convGraph {
	nodes := map[convKey]convNode{}
	// Inverted copy of node dependencies; used to propagate incompleteness
	invDeps := map[convKey][]convKey{}
	errNodes := map[convKey]error{}

	var addNext, newAddNext []convKey
	propagateIncompleteness := func(errNode convKey) {
		addNext = append(addNext[:0], errNode)
		for len(addNext) > 0 {
			for _, key := range addNext {
				n, ok := nodes[key]
				if !ok {
					panic("programmer error: makeConvGraph: inverse dependencies must all exist")
				}
				if n.incomplete {
					continue
				}
				n.incomplete = true
				nodes[key] = n
				newAddNext = append(newAddNext, invDeps[key]...)
			}
			addNext, newAddNext = newAddNext, addNext[:0]
		}
	}

	pending := slices.Clone(seeds)
	var newPending []convInfo
	for len(pending) > 0 {
		for _, c := range pending {
			if n, ok := nodes[c.key]; ok {
				n.debugNames = append(n.debugNames, c.debugNames...)
				nodes[c.key] = n
				continue
			}

			code, deps, err := calcNode(c)
			if err != nil {
				nodes[c.key] = convNode{
					typ:        c.typ,
					debugNames: c.debugNames,
					err:        err,
				}
				errNodes[c.key] = err
				propagateIncompleteness(c.key)
				continue
			}

			deps = slices.DeleteFunc(slices.Clone(deps), func(a convInfo) bool { return a.key == c.key })
			nodes[c.key] = convNode{
				typ:        c.typ,
				debugNames: c.debugNames,
				code:       code,
				deps:       deps,
			}

			incomplete := false
			for _, dep := range deps {
				invDeps[dep.key] = append(invDeps[dep.key], c.key)
				if depNode, ok := nodes[dep.key]; ok && depNode.incomplete {
					incomplete = true
				}
				newPending = append(newPending, dep)
			}
			if incomplete {
				propagateIncompleteness(c.key)
			}
		}
		pending, newPending = newPending, pending[:0]
	}

	// Clean up incomplete nodes and orphans.
	resNodes := map[convKey]convNode{}
	pending = slices.Clone(seeds)
	for len(pending) > 0 {
		for _, c := range pending {
			n, ok := nodes[c.key]
			if !ok {
				panic("programmer error: makeConvGraph: expected all nodes with complete parents to be reachable")
			}
			if n.incomplete {
				continue
			}
			if _, ok := resNodes[c.key]; ok {
				continue
			}
			resNodes[c.key] = n
			newPending = append(newPending, n.deps...)
		}
		pending, newPending = newPending, pending[:0]
	}

	return convGraph{
		nodes:      resNodes,
		errors:     errNodes,
		debugNodes: nodes,
		debugSeeds: slices.Clone(seeds),
	}
}

// Graph represents a resulting codec graph.
// All methods return a reasonable result if the *Graph is nil.
type Graph struct {
	convGraph
	sortedKeys []convKey
}

func newGraph(cg convGraph) *Graph {
	return &Graph{
		convGraph:  cg,
		sortedKeys: slices.SortedFunc(maps.Keys(cg.nodes), convKey.cmp),
	}
}

// Types returns the types of all complete and valid nodes, sorted.
func (g *Graph) Types() iter.Seq[ir.ParameterType] {
	return func(yield func(ir.ParameterType) bool) {
		if g == nil {
			return
		}
		for _, key := range g.sortedKeys {
			if !yield(g.nodes[key].typ) {
				return
			}
		}
	}
}

// Contains returns whether the graph contains a complete and valid
// codec for t.
func (g *Graph) Contains(t ir.ParameterType) bool {
	if g == nil {
		return false
	}
	_, ok := g.nodes[keyOf(t)]
	return ok
}

// DebugDOTCode generates DOT (graphviz) code for the codec dependency
// graph. If nodeRe is nil, all nodes are included. Otherwise, all
// nodes depending on any matching node are included.
func (g *Graph) DebugDOTCode(nodeRe *regexp.Regexp) []byte {
	const graphName = "codec_graph"
	if g == nil {
		return []byte("digraph " + graphName + " {}\n")
	}
	nodes := g.debugNodes

	edges := func(k convKey) []convKey {
		node := nodes[k]
		res := make([]convKey, len(node.deps))
		for i := range node.deps {
			res[i] = node.deps[i].key
		}
		slices.SortFunc(res, convKey.cmp)
		return slices.Compact(res)
	}

	isSeed := map[convKey]bool{}
	for _, seed := range g.debugSeeds {
		isSeed[seed.key] = true
	}

	var keys []convKey
	if nodeRe == nil {
		keys = slices.Collect(maps.Keys(nodes))
	} else {
		var roots []convKey
		for k, n := range nodes {
			if nodeRe.MatchString(k.typString) || slices.ContainsFunc(n.debugNames, nodeRe.MatchString) {
				roots = append(roots, k)
			}
		}
		inverse := map[convKey][]convKey{}
		for k := range nodes {
			for _, dep := range edges(k) {
				inverse[dep] = append(inverse[dep], k)
			}
		}
		keys = slices.Collect(maps.Keys(digraphutils.Reachable(roots, func(k convKey) []convKey { return inverse[k] })))
	}
	slices.SortFunc(keys, convKey.cmp)

	return digraphutils.DOTCode(digraphutils.DOTGraph[convKey]{
		Name:  graphName,
		Nodes: keys,
		Edges: edges,
		Prelude: `
node[shape=box, style=filled, colorscheme=set39]
legend [label=<
  <table bgcolor="white">
    <tr><td border="0"><b>Node Types:</b></td></tr>
    <tr><td bgcolor="1">Valid, seed node</td></tr>
    <tr><td bgcolor="5">Valid</td></tr>
    <tr><td bgcolor="9">Incomplete (=depends on node with errors)</td></tr>
    <tr><td bgcolor="4">Error origin</td></tr>
  </table>
>]`,
		NodeAttrs: func(key convKey) string {
			node := nodes[key]
			var color string
			switch {
			case node.err != nil:
				color = "4 /*error origin*/"
			case node.incomplete:
				color = "9 /*incomplete*/"
			case isSeed[key]:
				color = "1 /*valid, seed*/"
			default:
				color = "5 /*valid*/"
			}
			var label strings.Builder
			label.WriteString(html.EscapeString(key.typString))
			if node.err != nil {
				fmt.Fprintf(&label, "<br/>Error: <i>%v</i>", html.EscapeString(node.err.Error()))
			}
			if len(node.debugNames) > 0 {
				label.WriteString("<i>")
				for _, name := range node.debugNames {
					fmt.Fprintf(&label, "<br/>%v", html.EscapeString(name))
				}
				label.WriteString("</i>")
			}
			return fmt.Sprintf("[fillcolor=%v, label=<%v>]", color, label.String())
		},
	})
}
