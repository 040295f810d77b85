// Package testutil 测试辅助：临时SQLite数据库、默认配置和静默日志
package testutil

import (
	"io"
	"path/filepath"
	"testing"

	"equipment-go/internal/config"
	"equipment-go/internal/models"
	"equipment-go/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB 在临时目录创建已迁移的数据库，测试结束时关闭
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := models.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// NewConfig 测试用配置
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Defaults()
	cfg.JWT.SecretKey = "test-secret"
	cfg.Database.Path = filepath.Join(t.TempDir(), "app.db")
	cfg.Server.ProductionMode = true
	cfg.Auth.BcryptCost = bcrypt.MinCost
	return cfg
}

// NewLogger 丢弃输出的日志
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// NewHasher 使用最低代价，测试不必等待默认bcrypt代价
func NewHasher() *utils.PasswordHasher {
	return utils.NewPasswordHasher(bcrypt.MinCost)
}

// CreateUser 直接写入一个用户
func CreateUser(t *testing.T, db *gorm.DB, username, password string) *models.User {
	t.Helper()

	hash, err := NewHasher().Hash(password)
	require.NoError(t, err)

	user := &models.User{Username: username, PasswordHash: hash, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}
