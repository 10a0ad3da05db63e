package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/secomuib/zkpSoulboundToken/attestation-api/src/attestation"
	"github.com/secomuib/zkpSoulboundToken/attestation-api/src/database"
	"github.com/secomuib/zkpSoulboundToken/attestation-api/src/workers"
	appbuilder "github.com/secomuib/zkpSoulboundToken/pkg/app_builder"
	"github.com/secomuib/zkpSoulboundToken/pkg/ledger"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	"github.com/secomuib/zkpSoulboundToken/pkg/rabbitmq"
	"github.com/secomuib/zkpSoulboundToken/pkg/rest"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

const serviceName = "attestation-api"

const logPublisherAlias rabbitmq.PublisherAlias = "LogPublisher"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := appbuilder.New[AttestationConfigJson, AttestationConfig]().
		InitLogger(logger.GlobalLoggerConfig{
			Args: []logger.LoggerArg{{Key: "service", Value: serviceName}},
		}).
		LoadConfig("config.json").
		InitRabbitmqConnection().
		InitRabbitmqRegistries().
		AddLogSink(serviceName, logPublisherAlias).
		WithOption(func(a appbuilder.AppBuilderInterface[AttestationConfigJson, AttestationConfig]) {
			cfg := a.GetConfig()
			log := a.GetLogger()

			// ----- DATABASE -----
			db, err := database.ConnectToDatabase(cfg.DatabaseConf, log)
			if err != nil {
				log.Panic(err, "Could not connect to database")
			}

			// ----- VERIFYING KEY -----
			checker, err := loadVerifier(cfg.KeysConf, log)
			if err != nil {
				log.Panic(err, "Could not load verifying key")
			}

			service := attestation.NewService(
				ledger.NewGormLedger(db),
				ledger.NewGormEligibilityStore(db),
				checker,
				log,
			)

			a.AddWorkerServices(workers.NewVerificationRequestWorker(service)).
				AddMiddlewares(rest.NewMiddleware(rest.AllGroups, rest.CORS(cfg.RestConf.AllowedOrigins...))).
				AddGinRoutes(attestation.Routes(attestation.NewHandler(service, log))...)
		}).
		InitGinRouter().
		Build()

	if err := app.Start(ctx); err != nil {
		logger.Default().Panic(err, "Attestation service stopped")
	}
}

// loadVerifier reads the verifying key from a setup ceremony. Without one configured
// it runs a throwaway setup, which only suits development.
func loadVerifier(cfg KeysConfig, log *logger.Logger) (*zkp.Verifier, error) {
	if cfg.VerifyingKey == "" {
		log.Warn("No verifying key configured, running a development setup")
		backend, err := zkp.NewBackend(log)
		if err != nil {
			return nil, err
		}
		return backend.Verifier(), nil
	}

	f, err := os.Open(cfg.VerifyingKey)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk, err := zkp.ReadVerifyingKey(f)
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded verifying key from %s", cfg.VerifyingKey)
	return zkp.NewVerifier(vk, log), nil
}
