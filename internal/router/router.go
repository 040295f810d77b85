package router

import (
	"net/http"

	"equipment-go/internal/config"
	"equipment-go/internal/dto"
	"equipment-go/internal/handler"
	"equipment-go/internal/middleware"
	"equipment-go/internal/report"
	"equipment-go/internal/repository"
	"equipment-go/internal/service"
	"equipment-go/internal/utils"
	"equipment-go/pkg/ownerlock"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Version API版本
const Version = "1.0.0"

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	jwtManager *utils.JWTManager,
	logger *logrus.Logger,
	db *gorm.DB,
	locker ownerlock.Locker,
) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.WithError(err).Warn("可信代理配置无效，忽略 X-Forwarded-For")
		_ = r.SetTrustedProxies(nil)
	}
	if cfg.Upload.MaxBytes > 0 {
		r.MaxMultipartMemory = cfg.Upload.MaxBytes
	}

	// 全局中间件
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(&cfg.CORS))

	// 健康检查
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.InfoResponse{
			Message: "Chemical Equipment Analytics API",
			Version: Version,
		})
	})

	// 初始化Service
	store := repository.NewStore(db)
	authService := service.NewAuthService(store, jwtManager, utils.NewPasswordHasher(cfg.Auth.BcryptCost), logger)
	datasetService := service.NewDatasetService(store, locker, logger, cfg)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService, logger)
	datasetHandler := handler.NewDatasetHandler(datasetService, report.NewRenderer(), logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	authRequired := middleware.AuthMiddleware(jwtManager, authService, logger)

	// API路由组
	api := r.Group("/api")
	{
		// 公开路由，按IP限流
		auth := api.Group("/auth")
		{
			auth.POST("/register/", limiter.Middleware(), authHandler.Register)
			auth.POST("/login/", limiter.Middleware(), authHandler.Login)
			auth.GET("/me/", authRequired, authHandler.GetMe)
			auth.DELETE("/me/", authRequired, authHandler.DeleteMe)
		}

		// 数据集
		datasets := api.Group("/datasets")
		datasets.Use(authRequired)
		{
			datasets.GET("/", datasetHandler.List)
			datasets.POST("/upload/", datasetHandler.Upload)
			datasets.GET("/:id/", datasetHandler.Get)
			datasets.DELETE("/:id/", datasetHandler.Delete)
			datasets.GET("/:id/summary/", datasetHandler.Summary)
			datasets.GET("/:id/generate_pdf/", datasetHandler.GeneratePDF)
		}
	}

	return r
}
