package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	usernameRe   = regexp.MustCompile(`^[\w.@+-]+$`)
)

// GetValidator 获取验证器实例
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		// 错误信息使用JSON字段名
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})

		// 注册自定义验证函数
		_ = validate.RegisterValidation("username", validateUsername)
	})
	return validate
}

// validateUsername 验证用户名：字母、数字和 @.+-_，长度1-150
func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()
	if len(username) < 1 || len(username) > 150 {
		return false
	}
	return usernameRe.MatchString(username)
}

// ValidateStruct 验证结构体
func ValidateStruct(s interface{}) error {
	if err := GetValidator().Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError 格式化验证错误
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		param := e.Param()

		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, param)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, param)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "username":
			message = fmt.Sprintf("%s may contain only letters, digits and @.+-_ and must be 1-150 characters", field)
		default:
			message = fmt.Sprintf("%s failed validation: %s", field, e.Tag())
		}
		messages = append(messages, message)
	}

	return errors.New(strings.Join(messages, "; "))
}
