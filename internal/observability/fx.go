package observability

import (
	"github.com/office562/campbaraisa-sub000/internal/config"
	"github.com/office562/campbaraisa-sub000/internal/observability/logger"
	"github.com/office562/campbaraisa-sub000/internal/observability/metrics"
	"github.com/office562/campbaraisa-sub000/internal/observability/tracing"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{
			ServiceName: "campbaraisa",
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Invoke(func(cfg metrics.Config) {
		metrics.BillingWithConfig(cfg)
	}),
	fx.Provide(func(cfg config.Config) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Tracing.Enabled,
			ServiceName:      "campbaraisa",
			ServiceVersion:   "dev",
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
			ExporterProtocol: cfg.Tracing.ExporterProtocol,
			SamplingRatio:    cfg.Tracing.SamplingRatio,
		}
	}),
	fx.Invoke(tracing.NewProvider),
)
