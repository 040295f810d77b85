package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong bcrypt 只接受不超过72字节的密码
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// PasswordHasher 按配置的代价计算用户密码的bcrypt哈希
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher 创建密码哈希器，超出bcrypt范围的代价使用默认值
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Cost 哈希代价
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash 哈希密码
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword 验证密码，哈希里自带代价，与当前配置无关
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
