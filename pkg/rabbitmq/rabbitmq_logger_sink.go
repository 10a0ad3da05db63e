package rabbitmq

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	dtocommon "github.com/secomuib/zkpSoulboundToken/pkg/dto_common"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities/timeutil"
)

// CreateRabbitmqLoggerSink forwards log lines to publisher. Publish failures go to
// stderr, never back into the logger.
func CreateRabbitmqLoggerSink(service string, publisher IRabbitmqPublisher) logger.SinkFunc {
	return func(msg string, level zerolog.Level, timestamp timeutil.TimeUTC) {
		loggerMessage := dtocommon.LogMessageDto{
			Service:   service,
			Level:     level.String(),
			Message:   msg,
			Timestamp: timestamp,
		}

		if err := publisher.Publish(loggerMessage); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to publish log message to RabbitMQ: %v\n", err)
		}
	}
}
