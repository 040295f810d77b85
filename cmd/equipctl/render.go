package main

import (
	"fmt"
	"io"
	"strconv"

	"equipment-go/internal/dto"

	"github.com/olekukonko/tablewriter"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func average(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func renderDatasets(w io.Writer, datasets []dto.DatasetResponse) {
	table := newTable(w, "ID", "Filename", "Uploaded", "Records", "Avg Flowrate", "Avg Pressure", "Avg Temperature", "Equipment")
	for _, d := range datasets {
		table.Append([]string{
			strconv.FormatUint(uint64(d.ID), 10),
			d.Filename,
			d.UploadedAt.Local().Format(timeLayout),
			strconv.Itoa(d.TotalRecords),
			average(d.AvgFlowrate),
			average(d.AvgPressure),
			average(d.AvgTemperature),
			strconv.FormatInt(d.EquipmentCount, 10),
		})
	}
	table.Render()
}

// renderDetail 输出汇总统计和类型分布，withRows 为真时附带设备明细
func renderDetail(w io.Writer, d *dto.DatasetDetailResponse, withRows bool) {
	fmt.Fprintf(w, "Dataset %d: %s\n", d.ID, d.Filename)
	fmt.Fprintf(w, "Uploaded: %s\n", d.UploadedAt.Local().Format(timeLayout))
	fmt.Fprintf(w, "Total Records: %d\n\n", d.TotalRecords)

	summary := newTable(w, "Parameter", "Average Value")
	summary.AppendBulk([][]string{
		{"Flowrate", average(d.AvgFlowrate)},
		{"Pressure", average(d.AvgPressure)},
		{"Temperature", average(d.AvgTemperature)},
	})
	summary.Render()

	if len(d.TypeDistribution) > 0 {
		fmt.Fprintln(w)
		dist := newTable(w, "Equipment Type", "Count")
		for _, tc := range d.TypeDistribution {
			dist.Append([]string{tc.Type, strconv.FormatInt(tc.Count, 10)})
		}
		dist.Render()
	}

	if withRows && len(d.Equipment) > 0 {
		fmt.Fprintln(w)
		rows := newTable(w, "Equipment Name", "Type", "Flowrate", "Pressure", "Temperature")
		for _, e := range d.Equipment {
			rows.Append([]string{
				e.EquipmentName,
				e.EquipmentType,
				strconv.FormatFloat(e.Flowrate, 'f', -1, 64),
				strconv.FormatFloat(e.Pressure, 'f', -1, 64),
				strconv.FormatFloat(e.Temperature, 'f', -1, 64),
			})
		}
		rows.Render()
	}
}
