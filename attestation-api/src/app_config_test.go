package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secomuib/zkpSoulboundToken/attestation-api/src/database"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities"
)

func TestReadShippedConfig(t *testing.T) {
	t.Setenv(envDatabaseDsn, "")
	t.Setenv(envRabbitmqPassword, "")

	cfg, err := utilities.ReadConfig[AttestationConfigJson, AttestationConfig]("../config.json")
	require.NoError(t, err)

	assert.Equal(t, zerolog.InfoLevel, cfg.GetLoggerConfig().LogLevel)
	assert.Equal(t, uint16(9000), cfg.GetRestApiPort())
	assert.Equal(t, []string{"http://localhost:8081"}, cfg.RestConf.AllowedOrigins)
	assert.Equal(t, database.DriverSqlite, cfg.DatabaseConf.Driver)
	assert.Equal(t, "keys/credit_score.vk", cfg.KeysConf.VerifyingKey)
	assert.Len(t, cfg.GetRabbitmqConfig().PublishersConfig, 3)
	assert.Len(t, cfg.GetRabbitmqConfig().ConsumersConfig, 1)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(envDatabaseDsn, "host=db user=sbt dbname=sbt")
	t.Setenv(envRabbitmqPassword, "s3cret")

	cfg, err := utilities.ParseConfig[AttestationConfigJson, AttestationConfig](
		[]byte(`{"database":{"driver":"postgres","dsn":"ignored"},"rabbitmq":{"password":"guest"}}`))
	require.NoError(t, err)

	assert.Equal(t, "host=db user=sbt dbname=sbt", cfg.DatabaseConf.Dsn)
	assert.Equal(t, "s3cret", cfg.GetRabbitmqConfig().Password)
	assert.Equal(t, uint16(9000), cfg.GetRestApiPort())
}
