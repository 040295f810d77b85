package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"equipment-go/internal/middleware"
	"equipment-go/internal/report"
	"equipment-go/internal/service"
	"equipment-go/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// multipartOverhead 表单边界和头部允许占用的额外字节
const multipartOverhead = 64 << 10

// DatasetHandler 数据集处理器
type DatasetHandler struct {
	datasetService *service.DatasetService
	renderer       *report.Renderer
	logger         *logrus.Logger
}

// NewDatasetHandler 创建数据集处理器
func NewDatasetHandler(datasetService *service.DatasetService, renderer *report.Renderer, logger *logrus.Logger) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
		renderer:       renderer,
		logger:         logger,
	}
}

// datasetID 解析路径中的数据集ID，格式错误与不存在同样返回404
func datasetID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 63)
	if err != nil || id == 0 {
		utils.NotFound(c, "Dataset not found")
		return 0, false
	}
	return uint(id), true
}

// List 获取最近上传的数据集
// @Router /api/datasets/ [get]
func (h *DatasetHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	datasets, err := h.datasetService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.OK(c, datasets)
}

// Upload 上传CSV并生成数据集
// @Router /api/datasets/upload/ [post]
func (h *DatasetHandler) Upload(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	// 解析表单前先限制请求体大小，超大的请求不会落到临时文件
	limit := h.datasetService.MaxBytes()
	tooLarge := fmt.Sprintf("File exceeds the %d byte upload limit", limit)
	if limit > 0 {
		bodyLimit := limit + multipartOverhead
		if c.Request.ContentLength > bodyLimit {
			utils.BadRequest(c, tooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)
	}

	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.BadRequest(c, tooLarge)
			return
		}
		utils.BadRequest(c, "No file provided")
		return
	}

	if limit > 0 && file.Size > limit {
		utils.BadRequest(c, tooLarge)
		return
	}

	// 读取文件内容
	src, err := file.Open()
	if err != nil {
		utils.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		utils.BadRequest(c, "Failed to read uploaded file")
		return
	}

	detail, err := h.datasetService.Upload(c.Request.Context(), userID, file.Filename, content)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.Created(c, detail)
}

// Get 获取数据集详情
// @Router /api/datasets/{id}/ [get]
func (h *DatasetHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := datasetID(c)
	if !ok {
		return
	}

	detail, err := h.datasetService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.OK(c, detail)
}

// Summary 数据集汇总，与详情内容相同
// @Router /api/datasets/{id}/summary/ [get]
func (h *DatasetHandler) Summary(c *gin.Context) {
	h.Get(c)
}

// GeneratePDF 导出数据集PDF报告
// @Router /api/datasets/{id}/generate_pdf/ [get]
func (h *DatasetHandler) GeneratePDF(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := datasetID(c)
	if !ok {
		return
	}

	detail, err := h.datasetService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, detail); err != nil {
		h.logger.WithError(err).WithField("dataset_id", id).Error("生成PDF失败")
		utils.InternalError(c, "Internal server error")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="equipment_report_%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Delete 删除数据集
// @Router /api/datasets/{id}/ [delete]
func (h *DatasetHandler) Delete(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := datasetID(c)
	if !ok {
		return
	}

	if err := h.datasetService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.NoContent(c)
}
