package service

import "errors"

// ErrorKind 服务层错误类型，handler据此映射HTTP状态码
type ErrorKind int

const (
	ErrKindInternal ErrorKind = iota
	ErrKindValidation
	ErrKindAuth
	ErrKindUnauthorized
	ErrKindNotFound
	ErrKindBusy
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindValidation:
		return "validation"
	case ErrKindAuth:
		return "auth"
	case ErrKindUnauthorized:
		return "unauthorized"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindBusy:
		return "busy"
	default:
		return "internal"
	}
}

// Error 服务层错误。Message 面向客户端，Err 为内部原因，只用于日志
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf 获取错误类型，非 *Error 视为内部错误
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindInternal
}

// MessageOf 获取面向客户端的错误信息
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
