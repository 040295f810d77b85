package service

import (
	"context"
	"errors"

	"equipment-go/internal/dto"
	"equipment-go/internal/models"
	"equipment-go/internal/repository"
	"equipment-go/internal/utils"

	"github.com/sirupsen/logrus"
)

// AuthService 认证服务
type AuthService struct {
	store      repository.Store
	jwtManager *utils.JWTManager
	hasher     *utils.PasswordHasher
	logger     *logrus.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(store repository.Store, jwtManager *utils.JWTManager, hasher *utils.PasswordHasher, logger *logrus.Logger) *AuthService {
	return &AuthService{
		store:      store,
		jwtManager: jwtManager,
		hasher:     hasher,
		logger:     logger,
	}
}

// Register 用户注册
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, newError(ErrKindValidation, "Username and password are required", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, newError(ErrKindValidation, err.Error(), nil)
	}

	// 验证用户名是否已存在
	exists, err := s.store.Users().ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, newError(ErrKindInternal, "检查用户名失败", err)
	}
	if exists {
		return nil, newError(ErrKindAuth, "Username already exists", nil)
	}

	// 哈希密码
	hashedPassword, err := s.hasher.Hash(req.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, newError(ErrKindValidation, "password must be at most 72 bytes", nil)
	}
	if err != nil {
		return nil, newError(ErrKindInternal, "密码哈希失败", err)
	}

	// 创建用户
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		IsActive:     true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		// 并发注册同名用户时由唯一索引兜底
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrKindAuth, "Username already exists", nil)
		}
		return nil, newError(ErrKindInternal, "创建用户失败", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("用户注册成功")
	return s.issue(user)
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	invalid := newError(ErrKindUnauthorized, "Invalid credentials", nil)

	// 获取用户
	user, err := s.store.Users().GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, newError(ErrKindInternal, "查询用户失败", err)
	}

	// 验证密码
	if err := utils.CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, invalid
	}

	// 检查用户是否激活
	if !user.IsActive {
		return nil, invalid
	}

	return s.issue(user)
}

// GetMe 获取当前用户信息
func (s *AuthService) GetMe(ctx context.Context, userID uint) (*dto.UserInfo, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrKindNotFound, "User not found", nil)
		}
		return nil, newError(ErrKindInternal, "查询用户失败", err)
	}

	info := toUserInfo(user)
	return &info, nil
}

// DeleteAccount 删除账户，级联删除其全部数据集
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.store.Users().Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrKindNotFound, "User not found", nil)
		}
		return newError(ErrKindInternal, "删除用户失败", err)
	}

	s.logger.WithField("user_id", userID).Info("用户已删除")
	return nil
}

// ActiveUser 认证中间件使用：Token对应的用户必须存在且处于激活状态
func (s *AuthService) ActiveUser(ctx context.Context, userID uint) (bool, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsActive, nil
}

// issue 生成Token
func (s *AuthService) issue(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.jwtManager.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, newError(ErrKindInternal, "生成Token失败", err)
	}

	return &dto.AuthResponse{
		Token: token,
		User:  toUserInfo(user),
	}, nil
}

func toUserInfo(user *models.User) dto.UserInfo {
	return dto.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}
