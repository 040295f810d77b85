package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"equipment-go/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func sampleDetail() *dto.DatasetDetailResponse {
	return &dto.DatasetDetailResponse{
		DatasetFields: dto.DatasetFields{
			ID:             7,
			Filename:       "plant_a.csv",
			UploadedAt:     time.Date(2024, 5, 6, 14, 30, 59, 0, time.UTC),
			TotalRecords:   3,
			AvgFlowrate:    float(15),
			AvgPressure:    float(25.456),
			AvgTemperature: nil,
		},
		TypeDistribution: dto.TypeDistribution{
			{Type: "Pump", Count: 2},
			{Type: "Valve", Count: 1},
		},
	}
}

func render(t *testing.T, d *dto.DatasetDetailResponse) string {
	t.Helper()

	var buf bytes.Buffer
	r := &Renderer{compress: false}
	require.NoError(t, r.Render(&buf, d))
	return buf.String()
}

func TestRender_Content(t *testing.T) {
	out := render(t, sampleDetail())

	assert.True(t, len(out) > 5 && out[:5] == "%PDF-")
	for _, want := range []string{
		"Chemical Equipment Report",
		"Filename: plant_a.csv",
		"Upload Date: 2024-05-06 14:30",
		"Total Records: 3",
		"Summary Statistics",
		"(Parameter)",
		"(Average Value)",
		"(15.00)",
		"(25.46)",
		"(N/A)",
		"Equipment Type Distribution",
		"(Pump)",
		"(Valve)",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRender_EmptyDistributionOmitsSection(t *testing.T) {
	d := sampleDetail()
	d.TypeDistribution = nil

	out := render(t, d)
	assert.Contains(t, out, "Summary Statistics")
	assert.NotContains(t, out, "Equipment Type Distribution")
}

func TestRender_LongDistributionBreaksPages(t *testing.T) {
	d := sampleDetail()
	d.TypeDistribution = nil
	for i := 0; i < 80; i++ {
		d.TypeDistribution = append(d.TypeDistribution, dto.TypeCount{Type: fmt.Sprintf("Type-%02d", i), Count: int64(80 - i)})
	}

	out := render(t, d)
	assert.Contains(t, out, "(Type-00)")
	assert.Contains(t, out, "(Type-79)")
}

func TestNewRenderer_Compressed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().Render(&buf, sampleDetail()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.NotContains(t, buf.String(), "Summary Statistics")
}
