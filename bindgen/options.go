package bindgen

import "go.uber.org/zap"

// Options configures generation. Empty fields fall back to the descriptor
// or to DefaultOptions.
type Options struct {
	Logger *zap.Logger
	// Package overrides the Go package name of the glue.
	Package string
	// Prefix overrides the C symbol prefix.
	Prefix string
	// HeaderName is the file name the glue includes. Defaults to "<prefix>.h".
	HeaderName string
	// RuntimeImport is the import path of the boundary runtime package.
	RuntimeImport string
	// RegistryImport is the import path of the handle registry package.
	RegistryImport string
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		RuntimeImport:  "github.com/wippyai/bindgen/boundary",
		RegistryImport: "github.com/wippyai/bindgen/registry",
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.RuntimeImport == "" {
		o.RuntimeImport = def.RuntimeImport
	}
	if o.RegistryImport == "" {
		o.RegistryImport = def.RegistryImport
	}
	if o.Logger == nil {
		o.Logger = Logger()
	}
	return o
}
