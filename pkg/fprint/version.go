package fprint

import "github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"

var (
	Version     = "v0.0.0-in-progress"
	LibraryName = "libfprint-2"
)

// WrapperVersion returns the semantic version populated at build time via
// ldflags. In development it defaults to v0.0.0-in-progress.
func WrapperVersion() string {
	return Version
}

// BackendName reports the compiled-in native layer, or "none" when the module
// was built without the libfprint tag.
func BackendName() string {
	n, err := backend.Default()
	if err != nil {
		return "none"
	}
	return n.Name()
}
