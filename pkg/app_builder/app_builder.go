package appbuilder

import (
	"fmt"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	"github.com/secomuib/zkpSoulboundToken/pkg/rabbitmq"
	"github.com/secomuib/zkpSoulboundToken/pkg/rest"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities"
)

type AppConfig interface {
	GetLoggerConfig() logger.LoggerConfig
	GetRabbitmqConfig() rabbitmq.RabbitmqConfig
	GetRestApiPort() uint16
}

type appBuilder[T utilities.JsonConfigObj[U], U AppConfig] struct {
	logger         *logger.Logger
	config         U
	conn           *amqp.Connection
	workerServices []rabbitmq.WorkerService
	routes         []rest.Route
	middlewares    []rest.Middleware
	engine         *gin.Engine
}

type AppBuilderInterface[T utilities.JsonConfigObj[U], U AppConfig] interface {
	InitLogger(loggerArgs logger.GlobalLoggerConfig) AppBuilderInterface[T, U]
	LoadConfig(configPath string) AppBuilderInterface[T, U]
	GetConfig() U
	GetLogger() *logger.Logger
	WithOption(option func(AppBuilderInterface[T, U])) AppBuilderInterface[T, U]
	InitRabbitmqConnection() AppBuilderInterface[T, U]
	InitRabbitmqRegistries() AppBuilderInterface[T, U]
	AddLogSink(serviceName string, alias rabbitmq.PublisherAlias) AppBuilderInterface[T, U]
	AddWorkerServices(workerServices ...rabbitmq.WorkerService) AppBuilderInterface[T, U]
	AddGinRoutes(routes ...rest.Route) AppBuilderInterface[T, U]
	AddMiddlewares(middlewares ...rest.Middleware) AppBuilderInterface[T, U]
	InitGinRouter() AppBuilderInterface[T, U]
	Build() ApplicationInterface
}

func New[T utilities.JsonConfigObj[U], U AppConfig]() AppBuilderInterface[T, U] {
	return &appBuilder[T, U]{}
}

func (a *appBuilder[T, U]) InitLogger(loggerArgs logger.GlobalLoggerConfig) AppBuilderInterface[T, U] {
	logger.InitDefaultLogger(loggerArgs)
	a.logger = logger.Default()
	a.logger.Info("Logger initialized")

	return a
}

func (a *appBuilder[T, U]) LoadConfig(filePath string) AppBuilderInterface[T, U] {
	a.logger.Infof("Preparing to load config from %s ...", filePath)
	jsonConfig, err := utilities.ReadConfig[T, U](filePath)
	if err != nil {
		a.logger.Panic(err, "Failed to load config")
	}

	a.config = jsonConfig
	a.logger = a.logger.WithLevel(jsonConfig.GetLoggerConfig().LogLevel)
	a.logger.Info("Config successfully loaded.")
	return a
}

func (a *appBuilder[T, U]) GetConfig() U {
	return a.config
}

func (a *appBuilder[T, U]) GetLogger() *logger.Logger {
	return a.logger
}

// WithOption runs option against the builder, for wiring that needs the loaded config.
func (a *appBuilder[T, U]) WithOption(option func(AppBuilderInterface[T, U])) AppBuilderInterface[T, U] {
	option(a)
	return a
}

func (a *appBuilder[T, U]) InitRabbitmqConnection() AppBuilderInterface[T, U] {
	a.logger.Info("Preparing to connect to Rabbitmq server...")
	conn, err := rabbitmq.ConnectToRabbitmq(a.config.GetRabbitmqConfig())
	if err != nil {
		a.logger.Panic(err, "Could not connect to Rabbitmq")
	}

	a.conn = conn
	a.logger.Info("Connection with Rabbitmq server established")

	return a
}

func (a *appBuilder[T, U]) InitRabbitmqRegistries() AppBuilderInterface[T, U] {
	a.logger.Info("Initializing Rabbitmq registries from config")
	rabbitmqConf := a.config.GetRabbitmqConfig()

	rabbitmq.InitializeConsumerRegistry(a.conn, rabbitmqConf.ConsumersConfig)
	rabbitmq.InitializePublisherRegistry(a.conn, rabbitmqConf.PublishersConfig)
	a.logger.Info("Successfully initialized Rabbitmq registries from config")

	return a
}

// AddLogSink mirrors the default logger to the publisher registered under alias.
func (a *appBuilder[T, U]) AddLogSink(serviceName string, alias rabbitmq.PublisherAlias) AppBuilderInterface[T, U] {
	publisher := rabbitmq.GetPublisher(alias)
	if publisher == nil {
		a.logger.Warnf("No publisher %s configured, log sink disabled", alias)
		return a
	}
	logger.AddSinkToLoggerInstance(logger.Default(), rabbitmq.CreateRabbitmqLoggerSink(serviceName, publisher))
	a.logger.Infof("Log sink publishing to %s", alias)
	return a
}

func (a *appBuilder[T, U]) AddWorkerServices(workerServices ...rabbitmq.WorkerService) AppBuilderInterface[T, U] {
	a.logger.Info("Adding Worker Services to Application...")
	a.workerServices = append(a.workerServices, workerServices...)
	return a
}

func (a *appBuilder[T, U]) AddGinRoutes(routes ...rest.Route) AppBuilderInterface[T, U] {
	a.logger.Info("Adding Gin REST API routes to Application...")
	a.routes = append(a.routes, routes...)
	return a
}

func (a *appBuilder[T, U]) AddMiddlewares(middlewares ...rest.Middleware) AppBuilderInterface[T, U] {
	a.middlewares = append(a.middlewares, middlewares...)
	return a
}

func (a *appBuilder[T, U]) InitGinRouter() AppBuilderInterface[T, U] {
	a.logger.Info("Initializing Gin Router...")
	router := gin.New()
	router.Use(gin.Recovery(), rest.RequestLogger(a.logger))

	a.logger.Info("Registering REST API routes...")
	if err := rest.Register(router, a.routes, a.middlewares); err != nil {
		a.logger.Panic(err, "Failed to register REST API routes")
	}

	a.engine = router
	a.logger.Info("Successfully registered REST API routes.")
	return a
}

func (a *appBuilder[T, U]) Build() ApplicationInterface {
	return &Application{
		Logger:         a.logger,
		Addr:           fmt.Sprintf("0.0.0.0:%d", a.config.GetRestApiPort()),
		Conn:           a.conn,
		WorkerServices: a.workerServices,
		Engine:         a.engine,
	}
}
