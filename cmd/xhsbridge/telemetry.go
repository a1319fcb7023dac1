package main

import (
	"context"
	"log/slog"
	"xhsbridge/internal/components/telemetry"
)

// InitTelemetry sets up logging and, when a telemetry.json5 can be found, otel exporters. The
// returned API is what every component reports to.
func InitTelemetry(ctx context.Context, verbose bool) telemetry.API {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	var tel telemetry.API = telemetry.SlogAPI{}

	providers, err := telemetry.SetupFromEnv(ctx, "xhsbridge")
	if err != nil {
		tel.ReportWarning("telemetry.setup", err)
		return tel
	}
	go func() {
		<-ctx.Done()
		err := providers.Shutdown(context.Background())
		if err != nil {
			slog.Error("shutdown telemetry", "err", err.Error())
		}
	}()

	tel = telemetry.NewMeteredAPI(tel)
	telemetry.InstrumentPerfStats(ctx, tel)
	return tel
}
