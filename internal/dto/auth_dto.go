package dto

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" validate:"username"`
	Password string `json:"password" validate:"min=1,max=128"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse 注册/登录响应
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
