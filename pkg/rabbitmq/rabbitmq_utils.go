package rabbitmq

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
)

const maxConnectRetries = 7

func ConnectionString(cfg RabbitmqConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
}

// ConnectToRabbitmq dials the broker, backing off exponentially between attempts.
func ConnectToRabbitmq(cfg RabbitmqConfig) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	waitTime := 1 * time.Second

	queueLogger := logger.Default()

	for i := 0; i < maxConnectRetries; i++ {
		conn, err = amqp.Dial(ConnectionString(cfg))
		if err == nil {
			return conn, nil
		}
		queueLogger.Warnf("Attempt %d failed: %v. Retrying in %v...", i+1, err, waitTime)
		time.Sleep(waitTime)
		waitTime *= 2
	}
	return nil, err
}
