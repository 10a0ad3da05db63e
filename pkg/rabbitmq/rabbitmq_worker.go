package rabbitmq

// WorkerService is a long-running queue consumer started by the application.
type WorkerService interface {
	GetServiceName() string
	StartService()
}
