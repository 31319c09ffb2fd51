package converter

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/py2gomod/py2gomod/digraphutils"
)

type ConverterError struct {
	errors     map[convKey]error
	debugNames map[convKey][]string
}

// Returns nil if the graph had no errors.
// Underlying type is always [*ConverterError].
func newConverterError(graph convGraph) error {
	if len(graph.errors) == 0 {
		return nil
	}
	dependants := map[convKey][]convKey{}
	for k, n := range graph.debugNodes {
		for _, dep := range n.deps {
			dependants[dep.key] = append(dependants[dep.key], k)
		}
	}

	// Attribute each error to every named use that depends on it.
	debugNames := map[convKey][]string{}
	for k := range graph.errors {
		var names []string
		for r := range digraphutils.Reachable([]convKey{k}, func(k convKey) []convKey { return dependants[k] }) {
			names = append(names, graph.debugNodes[r].debugNames...)
		}
		slices.Sort(names)
		debugNames[k] = slices.Compact(names)
	}
	return &ConverterError{errors: graph.errors, debugNames: debugNames}
}

func (e *ConverterError) sortedKeys() []convKey {
	return slices.SortedFunc(maps.Keys(e.errors), convKey.cmp)
}

func (e *ConverterError) printSingleMessage(w io.Writer, k convKey) {
	fmt.Fprintf(w, "convert %v: %v", k.typString, e.errors[k])
	if names := e.debugNames[k]; len(names) > 0 {
		fmt.Fprintf(w, " (used by %v)", strings.Join(names, ", "))
	}
}

// Error returns a short error message.
func (e *ConverterError) Error() string {
	if len(e.errors) == 0 {
		return "success"
	}
	var b strings.Builder
	if len(e.errors) > 1 {
		fmt.Fprintf(&b, "%v converter errors, first: ", len(e.errors))
	}
	e.printSingleMessage(&b, e.sortedKeys()[0])
	return b.String()
}

// String returns a full multi-line error message containing
// all errors.
func (e *ConverterError) String() string {
	var b strings.Builder
	for _, k := range e.sortedKeys() {
		e.printSingleMessage(&b, k)
		b.WriteByte('\n')
	}
	return b.String()
}

func (e *ConverterError) Unwrap() []error {
	keys := e.sortedKeys()
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, e.errors[k])
	}
	return errs
}
