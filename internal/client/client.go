// Package client 设备数据分析服务的HTTP客户端
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"equipment-go/internal/dto"
)

const defaultTimeout = 60 * time.Second

// APIError 服务端返回的错误
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client API客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option 客户端选项
type Option func(*Client)

// WithToken 设置认证Token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient 替换底层的 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New 创建客户端，baseURL 形如 http://localhost:8000/api
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken 设置认证Token
func (c *Client) SetToken(token string) {
	c.token = token
}

// Register 注册并返回Token
func (c *Client) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login 登录并返回Token
func (c *Client) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me 当前用户
func (c *Client) Me(ctx context.Context) (*dto.UserInfo, error) {
	var resp dto.UserInfo
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteAccount 删除当前账户
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/auth/me/", nil, nil)
}

// ListDatasets 最近上传的数据集
func (c *Client) ListDatasets(ctx context.Context) ([]dto.DatasetResponse, error) {
	var resp []dto.DatasetResponse
	if err := c.doJSON(ctx, http.MethodGet, "/datasets/", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetDataset 数据集详情
func (c *Client) GetDataset(ctx context.Context, id uint) (*dto.DatasetDetailResponse, error) {
	var resp dto.DatasetDetailResponse
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/datasets/%d/", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Summary 数据集汇总
func (c *Client) Summary(ctx context.Context, id uint) (*dto.DatasetDetailResponse, error) {
	var resp dto.DatasetDetailResponse
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/datasets/%d/summary/", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteDataset 删除数据集
func (c *Client) DeleteDataset(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/datasets/%d/", id), nil, nil)
}

// Upload 以 multipart 上传CSV
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*dto.DatasetDetailResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("构建上传请求失败: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("构建上传请求失败: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/datasets/upload/", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp dto.DatasetDetailResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadPDF 下载PDF报告写入 w，返回写入的字节数
func (c *Client) DownloadPDF(ctx context.Context, id uint, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/datasets/%d/generate_pdf/", id), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp)
	}
	return io.Copy(w, resp.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

// decodeError 读取 {"error": "..."}，不是JSON时使用状态码描述
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var e dto.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
}
