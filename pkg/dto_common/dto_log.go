package dtocommon

import (
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities/timeutil"
)

type LogMessageDto struct {
	Service   string           `json:"service"`
	Level     string           `json:"level"`
	Message   string           `json:"message"`
	Timestamp timeutil.TimeUTC `json:"timestamp"`
}

func (lm LogMessageDto) Serialize() ([]byte, error) {
	return utilities.Serialize[LogMessageDto](lm)
}
