package bridge

import (
	"embed"
	"io/fs"
)

//go:embed value.go codec.go dynamic.go errors.go pool.go
var sources embed.FS

// Sources returns the package's own runtime sources, which generated
// modules vendor as their internal bridge package.
func Sources() fs.FS {
	return sources
}
