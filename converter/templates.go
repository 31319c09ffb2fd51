package converter

import (
	"embed"
	"text/template"

	"github.com/py2gomod/py2gomod/ir"
)

//go:embed templates
var templates embed.FS

var templateFuncMap = template.FuncMap{
	// Returns the codec variable name for a type. Replaced per
	// ConverterSet to also record the dependency.
	"codec": CodecName,
	// Returns the Go type expression for a type.
	"goType": func(t ir.ParameterType) string {
		return GoType(t)
	},
}
