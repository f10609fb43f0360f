// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle.
// app.Run calls each function in order, from configuration loading
// through DB setup, startup work and HTTP handler construction, to
// graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "stratafight",  // used only for logging/diagnostics
	LoadConfig:     LoadConfig,     // load core + app config
	ValidateConfig: ValidateConfig, // validate MongoDB URI, JWT secret, limits
	ConnectDB:      ConnectDB,      // connect to MongoDB and return DBDeps
	EnsureSchema:   EnsureSchema,   // validators + indexes
	Startup:        Startup,        // timeouts, background jobs
	BuildHandler:   BuildHandler,   // build the HTTP router + middleware stack
	Shutdown:       Shutdown,       // stop jobs, disconnect MongoDB
}
