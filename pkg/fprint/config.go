package fprint

import (
	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
	"github.com/fprint-go/libfprint-go/pkg/fprint/logging"
)

// Config carries the optional collaborators of a Context. The zero value
// binds to the compiled-in libfprint-2 backend and slog.Default().
type Config struct {
	// Logger receives debug records for native operations. Usernames are
	// always redacted. Nil uses logging.New(nil).
	Logger logging.Logger

	// Backend replaces the compiled-in native layer, typically with a
	// simulator from the simdev package. Nil selects libfprint-2, which is
	// only available when built with the libfprint tag.
	Backend backend.Native
}

func (c Config) resolve() (backend.Native, logging.Logger, error) {
	log := c.Logger
	if log == nil {
		log = logging.New(nil)
	}
	if c.Backend != nil {
		return c.Backend, log, nil
	}
	n, err := backend.Default()
	if err != nil {
		return nil, nil, remapError(err)
	}
	return n, log, nil
}
