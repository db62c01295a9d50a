package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	// logOut receives the JSON log stream; defaults to stderr for build
	// and mcp so stdout stays free for artifacts and the stdio transport.
	logOut  io.Writer
	stdout  io.Writer
	version string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput redirects structured logs.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithStdout sets where "build" writes the index when the output is "-".
func WithStdout(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}
