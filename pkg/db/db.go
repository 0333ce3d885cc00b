package db

import (
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// AllModels is the migration set, parents before children.
var AllModels = []any{
	&models.Reading{},
	&models.ReadingUpload{},
	&models.DeviceStatus{},
	&models.UserPreference{},
	&models.UploadAttempt{},
	&models.UploadedMessage{},
}

func GetInstance(dialector gorm.Dialector) *DB {
	var logger = common.GetLogger()
	once.Do(func() {
		conn, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

		if dialector.Name() == "sqlite" {
			// one writer keeps the shared-cache memory db free of table lock errors
			sqlDB, err := conn.DB()
			if err != nil {
				log.Fatal("Failed to get sql.DB handle:", err)
			}
			sqlDB.SetMaxOpenConns(1)

			if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
				log.Fatal("Failed to enable sqlite foreign key support", err)
			}

			if err := conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
				log.Fatal("Failed to set sqlite journal mode", err)
			}
		}

		instance = &DB{Conn: conn}

		if err := instance.Conn.AutoMigrate(AllModels...); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		logger.Info("Database migration completed")
	})
	return instance
}

func UseSqliteDialector() gorm.Dialector {
	var dbPath string
	var found bool
	if dbPath, found = os.LookupEnv(common.EnvKeyIOTDbPath); !found {
		dbPath = "anchor.db"
	}
	return sqlite.Open(dbPath + "?_busy_timeout=5000")
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}

func UsePostgresDialector(dsn string) gorm.Dialector {
	return postgres.Open(dsn)
}

// UseDialector picks the dialector for an IOT_DB_TYPE value.
func UseDialector(dbType string, dsn string) (gorm.Dialector, bool) {
	switch dbType {
	case "file":
		return UseSqliteDialector(), true
	case "memory":
		return UseMemorySqliteDialector(), true
	case "postgres":
		return UsePostgresDialector(dsn), true
	default:
		return nil, false
	}
}

// ResetTables empties every migrated table, children first. Used by tests sharing the memory db.
func (d *DB) ResetTables() error {
	for i := len(AllModels) - 1; i >= 0; i-- {
		if err := d.Conn.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(AllModels[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
