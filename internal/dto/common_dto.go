package dto

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// InfoResponse 根路径响应
type InfoResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}
