package module

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
)

// PackageName derives a Go package name from a Python module name:
// snake case without underscores, e.g. "my_calc" becomes "mycalc".
// Returns "binmod" if no valid name remains.
func PackageName(moduleName string) string {
	name := strings.ReplaceAll(strcase.ToSnake(moduleName), "_", "")
	if CheckPackageName(name) != nil {
		return "binmod"
	}
	return name
}

// CheckPackageName reports whether name is usable as the package clause
// of an emitted package.
func CheckPackageName(name string) error {
	switch {
	case name == "" || name == "_":
		return fmt.Errorf("invalid package name %q", name)
	case !token.IsIdentifier(name):
		return fmt.Errorf("package name %q is not a Go identifier", name)
	case name == "main":
		return fmt.Errorf("package name %q would make an executable", name)
	}
	for _, r := range name {
		if unicode.IsUpper(r) {
			return fmt.Errorf("package name %q must be lowercase", name)
		}
	}
	return nil
}
