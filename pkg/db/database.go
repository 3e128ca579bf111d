package db

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var gormDB *gorm.DB
var databaseOnce sync.Once

// InitDB 初始化审计库连接（支持 mysql/postgres）
func InitDB(cfg *Config) error {
	var err error
	databaseOnce.Do(func() {
		var dial gorm.Dialector
		if strings.ToLower(cfg.Driver) == "postgres" {
			dial = postgres.Open(cfg.DSN())
		} else {
			dial = mysql.New(mysql.Config{DSN: cfg.DSN()})
		}
		gormDB, err = gorm.Open(dial, &gorm.Config{
			NowFunc: func() time.Time {
				ti, _ := time.LoadLocation("Asia/Shanghai")
				return time.Now().In(ti)
			},
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return
		}
		if cfg.Debug {
			gormDB = gormDB.Debug()
		}
		sqlDB, derr := gormDB.DB()
		if derr == nil {
			if cfg.MaxIdleConns > 0 {
				sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
			}
			if cfg.MaxOpenConns > 0 {
				sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
			}
			if cfg.ConnMaxLifetime > 0 {
				sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
			}
		}
		zap.S().Debug("*** 审计库初始化完成 ***")
	})
	return err
}

func GetDB() *gorm.DB {
	return gormDB
}
