// internal/app/bootstrap/connect.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/tasks"
	"github.com/dalemusser/seoadmin/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB builds the backend client.
//
// WAFFLE calls this after configuration is loaded and validated. The backend
// owns all data, so "connecting" means configuring the shared HTTP transport
// and probing the API once. An unreachable backend is logged, not fatal: the
// dashboard can start first and the probe job reports when the API appears.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (BackendDeps, error) {
	timeouts.Configure(timeouts.Config{
		Call:   appCfg.BackendTimeout,
		Upload: appCfg.UploadTimeout,
	})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	transport.IdleConnTimeout = 90 * time.Second

	api, err := backend.New(appCfg.APIBaseURL, appCfg.DomainKey, &http.Client{Transport: transport}, logger.Named("backend"))
	if err != nil {
		return BackendDeps{}, err
	}

	if err := api.Ping(ctx); err != nil {
		logger.Warn("backend not reachable at startup",
			zap.String("api_base_url", api.BaseURL()),
			zap.Error(err))
	} else {
		logger.Info("backend reachable", zap.String("api_base_url", api.BaseURL()))
	}

	return BackendDeps{
		API:   api,
		Tasks: tasks.New(logger.Named("tasks")),
	}, nil
}
