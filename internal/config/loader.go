package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix 环境变量前缀，例如 EQUIP_JWT_SECRET_KEY
const EnvPrefix = "EQUIP"

// LoadConfig 加载配置文件
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 设置配置文件路径
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		// 默认查找 config.yaml
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// 读取环境变量
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	// 读取配置文件，未找到时只使用环境变量和默认值
	if err := v.ReadInConfig(); err != nil && !isConfigNotFound(err) {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 设置默认值
	setDefaults(&cfg)

	// 验证配置
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// bindEnvKeys Unmarshal 只会读取已知的key，这里把环境变量能覆盖的key都登记一遍
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port", "server.production_mode", "server.trusted_proxies",
		"database.path",
		"redis_service.host", "redis_service.port", "redis_service.db", "redis_service.password",
		"jwt.secret_key", "jwt.algorithm", "jwt.expire_minutes",
		"auth.bcrypt_cost",
		"upload.max_bytes", "upload.lock_timeout_seconds",
		"retention.max_datasets",
		"rate_limit.auth_rps", "rate_limit.auth_burst",
		"log.level",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// isConfigNotFound 判断是否为配置文件不存在
func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	// SetConfigFile 指定的路径不存在时返回的是 os 错误
	return errors.Is(err, fs.ErrNotExist)
}

// Defaults 返回只包含默认值的配置，JWT密钥需调用方设置
func Defaults() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// setDefaults 设置默认值
func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./database/equipment.db"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379 // 标准 Redis 端口
	}
	if cfg.JWT.Algorithm == "" {
		cfg.JWT.Algorithm = "HS256"
	}
	if cfg.JWT.ExpireMinutes == 0 {
		cfg.JWT.ExpireMinutes = 43200 // 30天
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.CORS.AllowMethods == nil {
		cfg.CORS.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if cfg.CORS.AllowHeaders == nil {
		cfg.CORS.AllowHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 10 << 20
	}
	if cfg.Upload.LockTimeoutSeconds == 0 {
		cfg.Upload.LockTimeoutSeconds = 10
	}
	if cfg.Retention.MaxDatasets == 0 {
		cfg.Retention.MaxDatasets = 5
	}
	if cfg.RateLimit.AuthRPS == 0 {
		cfg.RateLimit.AuthRPS = 5
	}
	if cfg.RateLimit.AuthBurst == 0 {
		cfg.RateLimit.AuthBurst = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// validateConfig 验证配置
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务器端口: %d", cfg.Server.Port)
	}

	if cfg.JWT.SecretKey == "" {
		return fmt.Errorf("JWT密钥不能为空")
	}

	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("无效的bcrypt代价: %d", cfg.Auth.BcryptCost)
	}

	if cfg.Retention.MaxDatasets < 1 {
		return fmt.Errorf("无效的数据集保留数量: %d", cfg.Retention.MaxDatasets)
	}

	for _, proxy := range cfg.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("无效的可信代理地址: %s", proxy)
			}
		}
	}

	if cfg.Upload.MaxBytes < 0 {
		return fmt.Errorf("无效的上传大小限制: %d", cfg.Upload.MaxBytes)
	}

	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("无效的日志级别: %s", cfg.Log.Level)
	}

	// 检查数据库目录是否存在
	dbDir := filepath.Dir(cfg.Database.Path)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	return nil
}
