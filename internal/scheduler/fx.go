package scheduler

import (
	"context"

	"github.com/steelworks/opshub/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(StartScheduler),
)

func StartScheduler(lc fx.Lifecycle, cfg config.Config, sched *Scheduler) {
	if !cfg.AutoRefreshEnabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sched.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
