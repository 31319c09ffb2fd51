// Package converter generates the Go types and bridge codecs used by
// shims to marshal values of each [ir.ParameterType].
package converter

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/template"

	"github.com/py2gomod/py2gomod/ir"
)

// ErrUnrepresentable is returned for types that cannot cross the
// interpreter boundary, such as dicts keyed by anything but str.
var ErrUnrepresentable = errors.New("type has no Go representation")

type convKey struct {
	typString string
}

func keyOf(t ir.ParameterType) convKey {
	return convKey{typString: t.String()}
}

func (a convKey) cmp(b convKey) int {
	return strings.Compare(a.typString, b.typString)
}

type convInfo struct {
	key        convKey
	typ        ir.ParameterType
	debugNames []string
}

// codecData is passed to the codec templates.
type codecData struct {
	Name     string
	GoType   string
	Type     ir.ParameterType
	Children []ir.ParameterType
}

type ConverterSet struct {
	seedConvs map[convKey]convInfo
	tmpl      *template.Template

	// Dependencies collected by the "codec" template func during a
	// single template execution.
	newDeps []ir.ParameterType
}

func NewConverterSet() *ConverterSet {
	cs := &ConverterSet{
		seedConvs: map[convKey]convInfo{},
	}
	funcs := maps.Clone(templateFuncMap)
	funcs["codec"] = func(t ir.ParameterType) string {
		cs.newDeps = append(cs.newDeps, t)
		return CodecName(t)
	}
	cs.tmpl = template.Must(template.New("codec.go.tmpl").Funcs(funcs).
		ParseFS(templates, "templates/codec.go.tmpl"))
	return cs
}

// Add adds a codec to the set, meaning it will end up in the generated
// code. debugName is used for error messages, optional.
// Returns the name of the codec variable.
func (cs *ConverterSet) Add(t ir.ParameterType, debugName string) (codecName string) {
	key := keyOf(t)
	info := convInfo{key: key, typ: t}
	if prev, ok := cs.seedConvs[key]; ok {
		info.debugNames = prev.debugNames
	}
	if debugName != "" {
		info.debugNames = append(info.debugNames, debugName)
	}
	cs.seedConvs[key] = info
	return CodecName(t)
}

// templateName returns the name of the codec template for t.
func templateName(t ir.ParameterType) string {
	switch t.Kind {
	case ir.KindString:
		return "string"
	case ir.KindInteger:
		return "integer"
	case ir.KindFloat:
		return "float"
	case ir.KindBoolean:
		return "boolean"
	case ir.KindNone:
		return "none"
	case ir.KindAny:
		return "any"
	case ir.KindList:
		return "list"
	case ir.KindOptional:
		return "optional"
	case ir.KindMap:
		return "map"
	case ir.KindTuple:
		return "tuple"
	default:
		panic(fmt.Sprintf("programmer error: unhandled kind %v", t.Kind))
	}
}

// checkKey returns an error unless t can key a dict crossing the
// interpreter boundary. The interpreter only carries str-keyed dicts.
func checkKey(t ir.ParameterType) error {
	if t.Kind == ir.KindString {
		return nil
	}
	return fmt.Errorf("%w: dict key of type %v, keys must be str", ErrUnrepresentable, t)
}

func (cs *ConverterSet) calcNode(ci convInfo) ([]byte, []convInfo, error) {
	defer func() {
		cs.newDeps = cs.newDeps[:0]
	}()

	if ci.typ.Kind == ir.KindMap {
		if err := checkKey(*ci.typ.Key); err != nil {
			return nil, nil, err
		}
	}

	tmplName := templateName(ci.typ)
	tmpl := cs.tmpl.Lookup(tmplName)
	if tmpl == nil {
		return nil, nil, fmt.Errorf("no codec template %q", tmplName)
	}
	var b bytes.Buffer
	if err := tmpl.Execute(&b, codecData{
		Name:     CodecName(ci.typ),
		GoType:   GoType(ci.typ),
		Type:     ci.typ,
		Children: ci.typ.Children(),
	}); err != nil {
		return nil, nil, fmt.Errorf("execute codec template %v: %w", tmplName, err)
	}

	deps := make([]convInfo, len(cs.newDeps))
	for i, t := range cs.newDeps {
		deps[i] = convInfo{key: keyOf(t), typ: t}
	}
	return b.Bytes(), deps, nil
}

// Code returns all of the generated codec declarations.
// The returned [Graph] can be used to find out which codecs were
// generated. If the returned error is a [*ConverterError], the
// returned code is still valid, but the erroneous codecs and any codecs
// depending on them are not included.
func (cs *ConverterSet) Code() ([]byte, *Graph, error) {
	graph := makeConvGraph(
		slices.SortedFunc(maps.Values(cs.seedConvs), func(a, b convInfo) int { return a.key.cmp(b.key) }),
		cs.calcNode,
	)

	var b bytes.Buffer
	for i, key := range slices.SortedFunc(maps.Keys(graph.nodes), convKey.cmp) {
		if i != 0 {
			b.WriteString("\n")
		}
		b.Write(graph.nodes[key].code)
		b.WriteString("\n")
	}
	return b.Bytes(), newGraph(graph), newConverterError(graph)
}
