package main

import (
	"flag"
	"net/http"
	"xhsbridge/internal/components/chrono"
	"xhsbridge/internal/components/configutil"
	"xhsbridge/internal/components/notify"
	"xhsbridge/internal/components/serviceutil"
	"xhsbridge/internal/db"
	"xhsbridge/internal/platform/xhs"
	"xhsbridge/internal/service"

	"connectrpc.com/connect"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configName := flag.String("config", "config.json5", "Name of the config file, a .local variant next to it is merged on top.")
	checkNow := flag.Bool("check", false, "Run a session health check immediately on start.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	tel := InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config](*configName)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	cfg = cfg.withDefaults()

	database, err := cfg.Store.Open(ctx)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer database.Close()

	sign, closeSigner, err := InitSigner(ctx, cfg.Signer, tel)
	if err != nil {
		serviceutil.Fatal("init signer", err)
	}
	defer closeSigner()

	options := []service.CoreAPIsOption{
		service.WithCustomTelemetryAPI(tel),
	}
	if cfg.Smtp.Enabled() {
		options = append(options, service.WithCustomNotifyAPI(notify.NewSmtpAPI(cfg.Smtp)))
	}

	svc := service.NewNoteService(
		service.NewCoreAPIs(db.New(database), db.NewMakeTx(database), options...),
		cfg.Service,
		service.Dependencies{
			Platform:    xhs.NewClient(cfg.Platform.client(), tel),
			Classifier:  xhs.NewClassifier(xhs.DefaultRules().With(cfg.Classifier)),
			Signer:      sign,
			Credentials: service.NewFileCredentials(cfg.CredentialFile),
		},
	)

	err = svc.LoadCredential(ctx)
	if err != nil {
		tel.ReportWarning("main.load-credential", err)
	}

	cron := chrono.NewStandardCron(tel)
	defer cron.Stop()
	err = cron.Cron(cfg.HealthCheckCron, func() {
		svc.HealthCheck(ctx)
	})
	if err != nil {
		serviceutil.Fatal("schedule health check", err)
	}
	if *checkNow {
		go svc.HealthCheck(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle(service.NewNoteServiceHandler(
		svc,
		cfg.AdminToken,
		connect.WithInterceptors(serviceutil.NewConnectOtelInterceptor()),
	))

	err = serviceutil.StartHttpServer(ctx, cfg.ListenPort, mux)
	if err != nil {
		serviceutil.Fatal("serve", err)
	}
}
