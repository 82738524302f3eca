package config

import (
	"fmt"

	"github.com/rnpack/packager/internal/logger"
	"github.com/rnpack/packager/internal/minify"
)

type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

type Options struct {
	// Absolute path of the project being bundled
	ProjectRoot string

	// Extra polyfills to run after the built-in ones, in this order. Each
	// name is used as both the id and the file of the polyfill.
	PolyfillModuleNames []string

	// The directory the built-in polyfill files live in. Their ids are
	// formed by joining this with the file name. Defaults to "polyfills".
	PolyfillDir string

	// Optional. Only needed when modules are wrapped with minification.
	MinifyCode minify.Func

	// Optional. Defaults to a silent log.
	Log logger.Log
}

// Validate reports the first problem with the options. Problems are found
// when the resolver is created rather than when it is first used.
func (options *Options) Validate() error {
	if options.ProjectRoot == "" {
		return &ConfigurationError{Field: "ProjectRoot", Reason: "is required"}
	}
	for i, name := range options.PolyfillModuleNames {
		if name == "" {
			return &ConfigurationError{
				Field:  fmt.Sprintf("PolyfillModuleNames[%d]", i),
				Reason: "must not be empty",
			}
		}
	}
	return nil
}
