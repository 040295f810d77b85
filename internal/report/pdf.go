// Package report 数据集PDF报告
package report

import (
	"fmt"
	"io"
	"strconv"

	"equipment-go/internal/dto"

	"github.com/go-pdf/fpdf"
)

const (
	title          = "Chemical Equipment Report"
	dateLayout     = "2006-01-02 15:04"
	rowHeight      = 8.0
	summaryColumn  = 76.2 // 3 inch
	typeColumn     = 50.8 // 2 inch
	bottomMargin   = 20.0
	fontFamily     = "Helvetica"
	notApplicable  = "N/A"
	sectionSpacing = 6.0
)

type rgb struct{ r, g, b int }

var (
	titleColor  = rgb{0x1a, 0x54, 0x90}
	headerFill  = rgb{128, 128, 128}
	headerText  = rgb{245, 245, 245}
	bodyFill    = rgb{245, 245, 220}
	bodyText    = rgb{0, 0, 0}
	borderColor = rgb{0, 0, 0}
)

// Renderer PDF报告生成器
type Renderer struct {
	compress bool
}

// NewRenderer 创建报告生成器
func NewRenderer() *Renderer {
	return &Renderer{compress: true}
}

// Render 把数据集详情渲染为PDF写入 w
func (r *Renderer) Render(w io.Writer, d *dto.DatasetDetailResponse) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(r.compress)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.SetTitle(title, false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	// 标题
	pdf.SetFont(fontFamily, "B", 24)
	setText(pdf, titleColor)
	pdf.CellFormat(0, 14, title, "", 1, "C", false, 0, "")
	pdf.Ln(sectionSpacing)

	// 基本信息
	pdf.SetFont(fontFamily, "", 12)
	setText(pdf, bodyText)
	pdf.CellFormat(0, rowHeight, tr("Filename: "+d.Filename), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, rowHeight, "Upload Date: "+d.UploadedAt.Format(dateLayout), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, rowHeight, "Total Records: "+strconv.Itoa(d.TotalRecords), "", 1, "L", false, 0, "")
	pdf.Ln(sectionSpacing)

	// 汇总统计
	heading(pdf, "Summary Statistics")
	table(pdf, []float64{summaryColumn, summaryColumn}, []string{"Parameter", "Average Value"}, [][]string{
		{"Flowrate", average(d.AvgFlowrate)},
		{"Pressure", average(d.AvgPressure)},
		{"Temperature", average(d.AvgTemperature)},
	})

	// 类型分布，为空时不输出
	if len(d.TypeDistribution) > 0 {
		pdf.Ln(sectionSpacing)
		heading(pdf, "Equipment Type Distribution")
		rows := make([][]string, len(d.TypeDistribution))
		for i, tc := range d.TypeDistribution {
			rows[i] = []string{tr(tc.Type), strconv.FormatInt(tc.Count, 10)}
		}
		table(pdf, []float64{typeColumn, typeColumn}, []string{"Equipment Type", "Count"}, rows)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("生成PDF失败: %w", err)
	}
	return pdf.Output(w)
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont(fontFamily, "B", 16)
	setText(pdf, bodyText)
	pdf.CellFormat(0, 10, text, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

// table 居中绘制带边框的表格，第一行为表头
func table(pdf *fpdf.Fpdf, widths []float64, header []string, rows [][]string) {
	pageWidth, _ := pdf.GetPageSize()
	var total float64
	for _, w := range widths {
		total += w
	}
	left := (pageWidth - total) / 2

	pdf.SetDrawColor(borderColor.r, borderColor.g, borderColor.b)

	pdf.SetFont(fontFamily, "B", 12)
	pdf.SetFillColor(headerFill.r, headerFill.g, headerFill.b)
	setText(pdf, headerText)
	pdf.SetX(left)
	for i, h := range header {
		pdf.CellFormat(widths[i], rowHeight, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontFamily, "", 11)
	pdf.SetFillColor(bodyFill.r, bodyFill.g, bodyFill.b)
	setText(pdf, bodyText)
	for _, row := range rows {
		pdf.SetX(left)
		for i, cell := range row {
			pdf.CellFormat(widths[i], rowHeight, cell, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func setText(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

func average(v *float64) string {
	if v == nil {
		return notApplicable
	}
	return fmt.Sprintf("%.2f", *v)
}
