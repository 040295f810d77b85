package models

import (
	"strings"

	"equipment-go/internal/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteParams 外键级联删除、写锁等待、立即事务，防止并发上传时升级锁失败
const sqliteParams = "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

// InitDB 初始化数据库并迁移表结构
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Open 打开SQLite数据库
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // 使用静默模式
		TranslateError: true,
	})
}

// AutoMigrate 自动迁移数据库表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Dataset{},
		&Equipment{},
	)
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return "file:" + path + "?" + sqliteParams
}
