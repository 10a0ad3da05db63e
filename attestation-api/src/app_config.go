package main

import (
	"os"

	"github.com/secomuib/zkpSoulboundToken/attestation-api/src/database"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	"github.com/secomuib/zkpSoulboundToken/pkg/rabbitmq"
)

const (
	envDatabaseDsn      = "ATTESTATION_DB_DSN"
	envRabbitmqPassword = "RABBITMQ_PASSWORD"
)

type AttestationConfigJson struct {
	LoggerConf   logger.LoggerConfigJson     `json:"logger"`
	RabbitmqConf rabbitmq.RabbitmqConfigJson `json:"rabbitmq"`
	RestConf     RestConfigJson              `json:"rest"`
	DatabaseConf database.ConfigJson         `json:"database"`
	KeysConf     KeysConfigJson              `json:"keys"`
}

// ConvertToDomain applies environment overrides on top of the file values.
func (acj AttestationConfigJson) ConvertToDomain() AttestationConfig {
	cfg := AttestationConfig{
		LoggerConf:   acj.LoggerConf.ConvertToDomain(),
		RabbitmqConf: acj.RabbitmqConf.ConvertToDomain(),
		RestConf:     acj.RestConf.ConvertToDomain(),
		DatabaseConf: acj.DatabaseConf.ConvertToDomain(),
		KeysConf:     acj.KeysConf.ConvertToDomain(),
	}
	if dsn, ok := os.LookupEnv(envDatabaseDsn); ok && dsn != "" {
		cfg.DatabaseConf.Dsn = dsn
	}
	if pw, ok := os.LookupEnv(envRabbitmqPassword); ok && pw != "" {
		cfg.RabbitmqConf.Password = pw
	}
	return cfg
}

type AttestationConfig struct {
	LoggerConf   logger.LoggerConfig
	RabbitmqConf rabbitmq.RabbitmqConfig
	RestConf     RestConfig
	DatabaseConf database.Config
	KeysConf     KeysConfig
}

func (ac AttestationConfig) GetLoggerConfig() logger.LoggerConfig {
	return ac.LoggerConf
}

func (ac AttestationConfig) GetRabbitmqConfig() rabbitmq.RabbitmqConfig {
	return ac.RabbitmqConf
}

func (ac AttestationConfig) GetRestApiPort() uint16 {
	return ac.RestConf.Port
}

type RestConfigJson struct {
	Port           uint16   `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type RestConfig struct {
	Port           uint16
	AllowedOrigins []string
}

func (rcj RestConfigJson) ConvertToDomain() RestConfig {
	port := rcj.Port
	if port == 0 {
		port = 9000
	}
	return RestConfig{Port: port, AllowedOrigins: rcj.AllowedOrigins}
}

type KeysConfigJson struct {
	VerifyingKey string `json:"verifying_key"`
}

type KeysConfig struct {
	VerifyingKey string
}

func (kcj KeysConfigJson) ConvertToDomain() KeysConfig {
	return KeysConfig{VerifyingKey: kcj.VerifyingKey}
}
