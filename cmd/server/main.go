package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"equipment-go/internal/config"
	"equipment-go/internal/models"
	"equipment-go/internal/router"
	"equipment-go/internal/utils"
	"equipment-go/pkg/ownerlock"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	level, _ := logrus.ParseLevel(cfg.Log.Level)
	logger.SetLevel(level)

	// 初始化数据库
	db, err := models.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("初始化数据库失败")
	}

	// 上传锁：配置了Redis时多实例共享，否则使用进程内锁
	var locker ownerlock.Locker
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddress(),
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("连接Redis失败")
		}
		locker = ownerlock.NewRedisLocker(redisClient, "equipment:lock:", 2*cfg.Upload.GetLockTimeout(), logger)
		logger.WithField("addr", cfg.Redis.GetAddress()).Info("使用Redis上传锁")
	} else {
		locker = ownerlock.NewLocalLocker()
		logger.Info("使用进程内上传锁")
	}

	// 初始化工具
	jwtManager := utils.NewJWTManager(
		cfg.JWT.SecretKey,
		cfg.JWT.Algorithm,
		cfg.JWT.GetExpireDuration(),
	)

	// 设置路由
	r := router.SetupRouter(cfg, jwtManager, logger, db, locker)

	// 启动服务器
	addr := cfg.Server.GetAddress()
	logger.WithFields(logrus.Fields{
		"addr":         addr,
		"database":     cfg.Database.Path,
		"max_datasets": cfg.Retention.MaxDatasets,
	}).Info("服务器启动")

	if err := r.Run(addr); err != nil {
		logger.WithError(err).Fatal("启动服务器失败")
	}
}
