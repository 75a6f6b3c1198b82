package reminder

import (
	"context"

	"github.com/office562/campbaraisa-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("reminder.worker",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			BatchSize:    cfg.Reminder.BatchSize,
			PollInterval: cfg.Reminder.PollInterval,
		}
	}),
	fx.Provide(NewWorker),
	fx.Invoke(registerWorker),
)

func registerWorker(lc fx.Lifecycle, cfg config.Config, worker *Worker, log *zap.Logger) {
	if !cfg.Reminder.Enabled {
		log.Named("reminder.worker").Info("reminder worker disabled")
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go worker.RunForever(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}
