// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	accountstore "github.com/dalemusser/stratafight/internal/app/store/accounts"
	"github.com/dalemusser/stratafight/internal/app/store/apistats"
	challengestore "github.com/dalemusser/stratafight/internal/app/store/challenges"
	"github.com/dalemusser/stratafight/internal/app/system/tasks"
	"github.com/dalemusser/stratafight/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It applies the configured timeouts and starts the background jobs.
// Returning a non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:    appCfg.PingTimeout,
		Request: appCfg.RequestTimeout,
		Job:     appCfg.JobTimeout,
	})
	logger.Info("timeouts configured",
		zap.Duration("ping", timeouts.Ping()),
		zap.Duration("request", timeouts.Request()),
		zap.Duration("job", timeouts.Job()))

	taskRunner = newTaskRunner(deps, appCfg, logger)
	taskRunner.Start()
	return nil
}

// taskRunner is the process task runner, stopped in Shutdown and reported
// by the health endpoint.
var taskRunner *tasks.Runner

func newTaskRunner(deps DBDeps, appCfg AppConfig, logger *zap.Logger) *tasks.Runner {
	db := deps.MongoDatabase
	r := tasks.New(logger)

	r.Register(tasks.ChallengeRefReconcileJob(
		accountstore.New(db),
		challengestore.New(db),
		logger,
		appCfg.ReconcileInterval,
	))
	if appCfg.APIStatsEnabled {
		r.Register(tasks.APIStatsRetentionJob(apistats.New(db), logger, appCfg.APIStatsRetention))
	}
	return r
}
