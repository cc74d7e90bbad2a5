// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dalemusser/seoadmin/internal/app/system/certcheck"
	"go.uber.org/zap"
)

// Pinger reports whether the backend API answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendProbeJob pings the backend on interval and logs when reachability
// changes. Failures are logged here, never returned, so an outage produces one
// warning instead of one error per tick.
func BackendProbeJob(p Pinger, logger *zap.Logger, interval time.Duration) Job {
	var down atomic.Bool
	return Job{
		Name:     "backend-probe",
		Interval: interval,
		Run: func(ctx context.Context) error {
			err := p.Ping(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			switch {
			case err != nil && !down.Swap(true):
				logger.Warn("backend unreachable", zap.Error(err))
			case err == nil && down.Swap(false):
				logger.Info("backend reachable again")
			}
			return nil
		},
	}
}

// CertExpiryJob checks the backend's TLS certificate daily and warns when it
// expires within warnWithin or is already invalid.
func CertExpiryJob(baseURL string, check certcheck.Checker, logger *zap.Logger, warnWithin time.Duration) Job {
	if check == nil {
		check = certcheck.Check
	}
	return Job{
		Name:     "backend-cert-expiry",
		Interval: 24 * time.Hour,
		Timeout:  30 * time.Second,
		Run: func(ctx context.Context) error {
			info := check(ctx, baseURL)
			if !info.Checked {
				if !info.IsValid {
					logger.Warn("backend certificate check failed",
						zap.String("host", info.Host),
						zap.String("error", info.Error))
				}
				return nil
			}
			fields := []zap.Field{
				zap.String("host", info.Host),
				zap.Time("expires_at", info.ExpiresAt),
				zap.Int("days_left", info.DaysLeft),
				zap.String("issuer", info.Issuer),
			}
			switch {
			case !info.IsValid:
				logger.Error("backend certificate is not valid", fields...)
			case time.Until(info.ExpiresAt) < warnWithin:
				logger.Warn("backend certificate expires soon", fields...)
			default:
				logger.Debug("backend certificate ok", fields...)
			}
			return nil
		},
	}
}
