package db

import (
	"context"
	"fmt"

	"github.com/huyvu-developer/chat-app-BE/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.DBName,
	)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
			NoLowerCase:   false,
		},
		Logger: logger.Default.LogMode(logger.Warn),
	}
}

// ConnectDB opens the master connection, registers read replicas and migrates the schema.
func ConnectDB(conf *config.ConfigSchema) (*gorm.DB, error) {
	if conf == nil {
		return nil, fmt.Errorf("config is not loaded")
	}

	var (
		orm *gorm.DB
		err error
	)
	switch conf.Databases.Driver {
	case "sqlite":
		orm, err = OpenSQLite(conf.Databases.Master.DBName)
	case "postgres":
		if conf.Databases.Master.Host == "" {
			return nil, fmt.Errorf("master database configuration is missing")
		}
		orm, err = gorm.Open(postgres.Open(dsnFromConfig(conf.Databases.Master)), gormConfig())
		if err == nil && len(conf.Databases.Replicas) > 0 {
			replicas := make([]gorm.Dialector, 0, len(conf.Databases.Replicas))
			for _, r := range conf.Databases.Replicas {
				replicas = append(replicas, postgres.Open(dsnFromConfig(r)))
			}
			err = orm.Use(dbresolver.Register(dbresolver.Config{
				Replicas: replicas,
				Policy:   dbresolver.RandomPolicy{},
			}))
		}
	default:
		return nil, fmt.Errorf("unsupported db driver %q", conf.Databases.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(orm); err != nil {
		return nil, err
	}
	return orm, nil
}

// OpenSQLite opens a SQLite database limited to one connection, which keeps
// shared in-memory databases consistent and serializes writers.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	orm, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := orm.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return orm, nil
}

// GetReadOnlyDB returns a session routed to the replicas, if any.
func GetReadOnlyDB(ctx context.Context, orm *gorm.DB) *gorm.DB {
	return orm.WithContext(ctx).Clauses(dbresolver.Read)
}

// GetWriteDB returns a session routed to the master.
func GetWriteDB(ctx context.Context, orm *gorm.DB) *gorm.DB {
	return orm.WithContext(ctx).Clauses(dbresolver.Write)
}
