/*
Package py2gomod compiles a Python package into a Go module that embeds the gpython interpreter (https://github.com/go-python/gpython).

Functions marked in the Python sources become statically typed Go functions. Python code may call back into Go through host functions.

# Architecture pipeline (for developers)

Each element in the pipeline has distinct sub-packages that do a specific part. These are then "glued" together in [Transpile] and [Build].
 1. [walker], [metadata] and [layout]: Discover files, read 'pyproject.toml' and resolve the project layout
 2. [pysyntax] and [analyzer]: Parse each source file and extract typed signatures
 3. [project]: Assemble everything into an [ir.ProjectContext]
 4. [converter] and [shim]: Generate the Go code of the call boundary, backed by the [bridge] runtime
 5. [render]: Render go.mod, docs, resources and generated code into files
 6. [compiler]: Optionally build the emitted module with the Go toolchain
*/
package py2gomod
