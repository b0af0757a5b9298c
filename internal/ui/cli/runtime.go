package cli

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"depscope/internal/core/app"
	"depscope/internal/core/config"
	"depscope/internal/core/errors"
	"depscope/internal/shared/observability"
)

// runtime holds what every subcommand needs once flags are parsed.
type runtime struct {
	cfg      *config.Config
	app      *app.App
	shutdown func(context.Context) error
}

func (rt *runtime) setup(ctx context.Context, opts *rootOptions, logOut io.Writer) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(observability.NewTracingHandler(handler)))

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.metricsOut != "" {
		cfg.Observability.MetricsOut = opts.metricsOut
	}
	if opts.maxFileSize != "" {
		size, err := config.ParseSize(opts.maxFileSize)
		if err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid --max-file-size")
		}
		cfg.Scan.MaxFileBytes = size
	}

	shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	rt.shutdown = shutdown
	return rt.rebuild()
}

// rebuild recreates the app after flags changed the configuration.
func (rt *runtime) rebuild() error {
	a, err := app.New(rt.cfg)
	if err != nil {
		return err
	}
	rt.app = a
	return nil
}

// close flushes metrics and traces. It is safe to call when setup never ran.
func (rt *runtime) close(ctx context.Context) error {
	var errs []error
	if rt.cfg != nil && rt.cfg.Observability.MetricsOut != "" {
		if err := observability.WriteMetrics(rt.cfg.Observability.MetricsOut); err != nil {
			errs = append(errs, err)
		} else {
			slog.Debug("wrote metrics", "path", rt.cfg.Observability.MetricsOut)
		}
	}
	if rt.shutdown != nil {
		if err := rt.shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
