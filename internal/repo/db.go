package repo

import (
	"Go_Share/config"
	"Go_Share/internal/logger"
	"Go_Share/model"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var Db *gorm.DB

// AutoMigrate migrates every model in dependency order.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Package{},
		&model.File{},
		&model.ShareLink{},
		&model.AccessLog{},
	)
}

// dialector picks the gorm driver for DB_DRIVER.
func dialector(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser,
			cfg.DBPass,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
		return gormMysql.Open(dsn), nil
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPass,
			cfg.DBName,
		)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// InitDatabase opens the relational store and runs migrations.
func InitDatabase() {
	dial, err := dialector(config.AppConfig)
	if err != nil {
		logger.L().Fatal("init database fail", zap.Error(err))
	}
	gormCfg := &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
	if config.AppConfig.IsProduction() {
		gormCfg.Logger = gormLogger.Default.LogMode(gormLogger.Warn)
	}
	db, err := gorm.Open(dial, gormCfg)
	if err != nil {
		logger.L().Fatal("init database fail", zap.String("driver", config.AppConfig.DBDriver), zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.L().Fatal("get sql db fail", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := AutoMigrate(db); err != nil {
		logger.L().Fatal("auto migrate fail", zap.Error(err))
	}
	logger.L().Info("init database success", zap.String("driver", config.AppConfig.DBDriver))
	Db = db
}
