package logger

import "github.com/rs/zerolog"

type LoggerConfigJson struct {
	LogLevel string `json:"log_level"`
}

type LoggerConfig struct {
	LogLevel zerolog.Level
}

// ConvertToDomain parses the textual level; unknown or empty values fall back to info.
func (lcj LoggerConfigJson) ConvertToDomain() LoggerConfig {
	level, err := zerolog.ParseLevel(lcj.LogLevel)
	if err != nil || lcj.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return LoggerConfig{
		LogLevel: level,
	}
}
