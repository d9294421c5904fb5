package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens the service database. DB_DRIVER selects mysql; anything else
// opens the SQLite file at SQLITE_PATH.
func NewDB() (*gorm.DB, error) {
	logMode := logger.Warn
	if os.Getenv("GORM_LOG") == "info" {
		logMode = logger.Info
	}
	if os.Getenv("GORM_LOG") == "off" {
		logMode = logger.Silent
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // Use log.Logger for Printf support
		logger.Config{
			SlowThreshold: time.Second, // Slow SQL threshold
			LogLevel:      logMode,     // Log level
			Colorful:      true,        // Enable color
		},
	)

	var dialector gorm.Dialector
	switch DBDriver() {
	case "mysql":
		dialector = mysql.Open(MySQLDSN())
	default:
		dialector = sqlite.Open(GetEnv("SQLITE_PATH", "inventory.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// DBDriver reports the configured driver name, "sqlite" unless DB_DRIVER says otherwise.
func DBDriver() string {
	return GetEnv("DB_DRIVER", "sqlite")
}

// MySQLDSN builds the go-sql-driver DSN from MYSQL_DSN or the MYSQL_* parts.
func MySQLDSN() string {
	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		return dsn
	}
	user := os.Getenv("MYSQL_USER")
	pass := os.Getenv("MYSQL_PASS")
	host := GetEnv("MYSQL_HOST", "localhost")
	port := GetEnv("MYSQL_PORT", "3306")
	db := GetEnv("MYSQL_DB", "inventory")
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=Local&multiStatements=true", user, pass, host, port, db)
}
