// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/seoadmin/internal/app/resources"
	"github.com/dalemusser/seoadmin/internal/app/system/seometa"
	"github.com/dalemusser/seoadmin/internal/app/system/tasks"
	"github.com/dalemusser/seoadmin/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after ConnectDB, before the HTTP handler is built.
//
// It registers the shared layout templates, checks the embedded meta field
// catalog and starts the background probes. Returning an error aborts
// startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps BackendDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()
	viewdata.Init(appCfg.SiteName)

	if err := seometa.Check(); err != nil {
		logger.Error("meta field catalog is invalid", zap.Error(err))
		return err
	}

	startTaskRunner(deps, appCfg, logger)
	return nil
}

// startTaskRunner registers the backend probes and starts them.
func startTaskRunner(deps BackendDeps, appCfg AppConfig, logger *zap.Logger) {
	if deps.Tasks == nil {
		return
	}
	deps.Tasks.Register(tasks.BackendProbeJob(deps.API, logger, appCfg.ProbeInterval))
	deps.Tasks.Register(tasks.CertExpiryJob(deps.API.BaseURL(), nil, logger, appCfg.CertWarnWithin))
	deps.Tasks.Start()
}
