package handler

import (
	"errors"
	"io"

	"equipment-go/internal/dto"
	"equipment-go/internal/middleware"
	"equipment-go/internal/service"
	"equipment-go/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *service.AuthService
	logger      *logrus.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *service.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// bindJSON 空请求体按空对象处理，交给服务层给出缺少字段的提示
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// Register 用户注册
// @Router /api/auth/register/ [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.Created(c, resp)
}

// Login 用户登录
// @Router /api/auth/login/ [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.OK(c, resp)
}

// GetMe 获取当前用户信息
// @Router /api/auth/me/ [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "Authentication credentials were not provided")
		return
	}

	userInfo, err := h.authService.GetMe(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.OK(c, userInfo)
}

// DeleteMe 删除当前账户及其全部数据集
// @Router /api/auth/me/ [delete]
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "Authentication credentials were not provided")
		return
	}

	if err := h.authService.DeleteAccount(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.NoContent(c)
}
