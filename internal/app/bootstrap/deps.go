// internal/app/bootstrap/deps.go
package bootstrap

import (
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/tasks"
)

// BackendDeps holds the connections this WAFFLE app needs.
//
// It is created in ConnectDB and passed to Startup, BuildHandler and
// Shutdown. There is no local database; every read and write goes through the
// backend client.
type BackendDeps struct {
	// API is the client for the backend REST API.
	API *backend.Client

	// Tasks runs the background probes started in Startup.
	Tasks *tasks.Runner
}
