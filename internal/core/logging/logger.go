package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ComponentKey is the field that names the subsystem emitting an event.
const ComponentKey = "cmp"

// Component creates a logger from the global logger tagged with name.
func Component(name string) zerolog.Logger {
	return Scoped(log.Logger, name)
}

// Scoped tags an injected logger with a component name.
func Scoped(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(ComponentKey, name).Logger()
}
