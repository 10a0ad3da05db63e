package rabbitmq

import (
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
)

type ConsumerAlias string

var (
	consumerRegistry    map[ConsumerAlias]IRabbitmqConsumer
	onceConsumer        sync.Once
	initializedConsumer bool
)

func GetConsumer(alias ConsumerAlias) IRabbitmqConsumer {
	if !initializedConsumer {
		panic("Consumer registry not initialized: call InitializeConsumerRegistry() first")
	}
	return consumerRegistry[alias]
}

func InitializeConsumerRegistry(conn *amqp.Connection, consumerConfig []RabbitmqConsumerConfig) {
	onceConsumer.Do(func() {
		consumerRegistry = make(map[ConsumerAlias]IRabbitmqConsumer)

		for _, consumer := range consumerConfig {
			channel, err := conn.Channel()
			if err != nil {
				logger.Default().Panicf(err, "Could not obtain channel for consumer %s", consumer.ConsumerAlias)
			}

			consumerRegistry[consumer.ConsumerAlias] = NewConsumer(
				channel,
				consumer.QueueName,
				consumer.ConsumerTag,
				logger.Default(),
			)
		}

		initializedConsumer = true
	})
}

// ConsumeChannel is the part of *amqp.Channel a consumer uses.
type ConsumeChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type RabbitmqConsumer struct {
	Channel     ConsumeChannel
	QueueName   string
	ConsumerTag string
	log         *logger.Logger
}

type IRabbitmqConsumer interface {
	StartConsuming(func(amqp.Delivery)) error
}

func NewConsumer(ch ConsumeChannel, queueName, consumerTag string, log *logger.Logger) *RabbitmqConsumer {
	return &RabbitmqConsumer{
		Channel:     ch,
		QueueName:   queueName,
		ConsumerTag: consumerTag,
		log:         logger.OrNop(log),
	}
}

// StartConsuming hands every delivery to messageHandler until the channel closes.
// A panicking handler is logged and the loop carries on with the next delivery.
func (rc *RabbitmqConsumer) StartConsuming(messageHandler func(amqp.Delivery)) error {
	msgs, err := rc.Channel.Consume(
		rc.QueueName,   // queue
		rc.ConsumerTag, // consumer
		true,           // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("register consumer %s on %s: %w", rc.ConsumerTag, rc.QueueName, err)
	}

	rc.log.Infof("Waiting for messages in queue: %s", rc.QueueName)
	for d := range msgs {
		rc.log.Debugf("[%s] received %d bytes", rc.QueueName, len(d.Body))
		rc.handle(messageHandler, d)
	}
	rc.log.Infof("Queue %s closed, consumer %s stopped", rc.QueueName, rc.ConsumerTag)
	return nil
}

func (rc *RabbitmqConsumer) handle(messageHandler func(amqp.Delivery), d amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			rc.log.Errorf(nil, "[%s] Recovered from panic for consumer: %s, %v", rc.QueueName, rc.ConsumerTag, r)
		}
	}()
	messageHandler(d)
}
