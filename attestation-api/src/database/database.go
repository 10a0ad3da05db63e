package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/secomuib/zkpSoulboundToken/pkg/ledger"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

type ConfigJson struct {
	Driver string `json:"driver"`
	Dsn    string `json:"dsn"`
}

type Config struct {
	Driver string
	Dsn    string
}

func (cj ConfigJson) ConvertToDomain() Config {
	driver := cj.Driver
	if driver == "" {
		driver = DriverSqlite
	}
	dsn := cj.Dsn
	if dsn == "" && driver == DriverSqlite {
		dsn = "attestations.db"
	}
	return Config{Driver: driver, Dsn: dsn}
}

func dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSqlite:
		return sqlite.Open(cfg.Dsn), nil
	case DriverPostgres:
		return postgres.Open(cfg.Dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// ConnectToDatabase opens the configured database and migrates the ledger tables.
func ConnectToDatabase(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	log = logger.OrNop(log)
	log.Infof("Establishing connection to %s database...", cfg.Driver)

	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log.Info("Running migrations for ledger tables")
	if err := ledger.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	log.Info("Database connection established successfully.")
	return db, nil
}
