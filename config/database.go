package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const SearchLimit = 50

// ConnectDatabase opens the store named by the settings.
// MySQL is retried with backoff up to maxAttempts; sqlite fails fast.
func ConnectDatabase(s *Settings, logg *logrus.Logger, maxAttempts int) (*gorm.DB, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var dialector gorm.Dialector
	switch s.DBDriver {
	case DriverMysql:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
			s.DBUser,
			s.DBPassword,
			s.DBHost,
			s.DBPort,
			s.DBName,
		)
		dialector = mysql.Open(dsn)
	case DriverSqlite:
		dialector = sqlite.Open(sqliteDSN(s.DBPath))
		maxAttempts = 1
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}

	var (
		db  *gorm.DB
		err error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, err = gorm.Open(dialector, initConfig())
		if err == nil {
			break
		}
		if attempt == maxAttempts {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logg.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to connect database; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if s.DBDriver == DriverSqlite {
		// one writer at a time; the stock lock already serializes mutations
		sqlDB.SetMaxOpenConns(1)
	} else {
		if s.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(s.MaxOpenConns)
		}
		if s.MaxIdleConns >= 0 {
			sqlDB.SetMaxIdleConns(s.MaxIdleConns)
		}
		if s.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(s.ConnMaxLifetime)
		}
	}

	if pluginErr := db.Use(otelgorm.NewPlugin()); pluginErr != nil {
		logg.WithFields(logrus.Fields{"field": "database"}).Warn("db connected but failed to install otelgorm plugin: " + pluginErr.Error())
	}
	return db, nil
}

// CloseDatabase releases the pool behind db.
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return errors.New("db is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func initLog() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:                  false,
			LogLevel:                  logger.Error,
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
