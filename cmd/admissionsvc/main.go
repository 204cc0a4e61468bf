package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/mediagate/internal/infra/config"
	"github.com/mkrupp/mediagate/internal/infra/logging"
	"github.com/mkrupp/mediagate/internal/infra/probe"
	"github.com/mkrupp/mediagate/internal/infra/transport/http"
	"github.com/mkrupp/mediagate/internal/repo/decision"
	"github.com/mkrupp/mediagate/internal/svc/admissionsvc"
)

const (
	appName = "mediagate"
	svcName = "admissionsvc"
)

type Config struct {
	config.EnvConfig

	Log           logging.LoggerConfig                    `envPrefix:"LOG_"`
	Admission     admissionsvc.AdmissionConfig            `envPrefix:"ADMISSION_"`
	AdmissionHTTP admissionsvc.HTTPTransportConfig        `envPrefix:"ADMISSION_HTTP_"`
	FFprobe       probe.FFprobeConfig                     `envPrefix:"FFPROBE_"`
	Decision      decision.SQLiteDecisionRepositoryConfig `envPrefix:"DECISION_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.admissionsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	if err := cfg.Admission.Policy().Validate(); err != nil {
		return fmt.Errorf("admission policy: %w", err)
	}

	prober := probe.NewFFprobeProber(cfg.FFprobe)
	if err := prober.Preflight(); err != nil {
		log.WarnContext(ctx, "ffprobe preflight failed, videos will fail to probe", "error", err)
	}

	decisionRepo, err := decision.SQLiteDecisionRepositoryFactory(cfg.Decision)()
	if err != nil {
		return fmt.Errorf("new decision repository: %w", err)
	}
	defer decisionRepo.Close()

	admissionSvc := admissionsvc.NewBatchAdmissionService(prober, cfg.Admission)

	httpTransport := admissionsvc.NewHTTPTransport(admissionSvc, decisionRepo, cfg.AdmissionHTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.AdmissionHTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
