package datapush

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"CovidDashboard/src/processor"

	"github.com/xuri/excelize/v2"
)

// 导出工作簿中的工作表，顺序固定
var SheetNames = []string{"Trend", "Regions", "Top5", "Distribution", "WorldTop"}

const dateLayout = "2006-01-02"

// BuildWorkbook 把一次筛选结果和世界排名写入新的工作簿
// wa 为 nil 时 WorldTop 只有标题行
func BuildWorkbook(report *processor.Report, wa *processor.WorldAnalysis) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetNames[0]); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range SheetNames[1:] {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	sheets := map[string][][]interface{}{
		"Trend":        trendRows(report),
		"Regions":      regionRows(report),
		"Top5":         topRows(report),
		"Distribution": distributionRows(report),
		"WorldTop":     worldRows(wa),
	}
	for _, name := range SheetNames {
		if err := writeSheet(f, name, sheets[name]); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// writeSheet 第一行为列名
func writeSheet(f *excelize.File, sheetName string, rows [][]interface{}) error {
	for rowIdx, row := range rows {
		for colIdx, val := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return fmt.Errorf("写入 %s!%s 失败: %w", sheetName, cell, err)
			}
		}
	}
	return nil
}

func trendRows(r *processor.Report) [][]interface{} {
	rows := [][]interface{}{{"Date", "Confirmed", "Deaths", "Recovered"}}
	for _, d := range r.Trend {
		rows = append(rows, []interface{}{d.Date.Format(dateLayout), d.Confirmed, d.Deaths, d.Recovered})
	}
	return rows
}

func regionRows(r *processor.Report) [][]interface{} {
	rows := [][]interface{}{{"WHO Region", "Mean Deaths", "Rows"}}
	for _, m := range r.RegionMeans {
		var mean interface{}
		if m.Mean.Valid {
			mean = m.Mean.Value
		}
		rows = append(rows, []interface{}{m.Region, mean, m.Count})
	}
	return rows
}

func topRows(r *processor.Report) [][]interface{} {
	rows := [][]interface{}{{"Country/Region", "Max Confirmed"}}
	for _, p := range r.Top {
		rows = append(rows, []interface{}{p.Country, p.Confirmed})
	}
	return rows
}

func distributionRows(r *processor.Report) [][]interface{} {
	rows := [][]interface{}{{"Country/Region", "Date", "Active", "Recovered", "Deaths", "Active %", "Recovered %", "Deaths %"}}
	for _, s := range r.Distribution {
		rows = append(rows, []interface{}{
			s.Country, s.Date.Format(dateLayout),
			s.Active, s.Recovered, s.Deaths,
			s.ActiveShare, s.RecoveredShare, s.DeathsShare,
		})
	}
	return rows
}

func worldRows(wa *processor.WorldAnalysis) [][]interface{} {
	rows := [][]interface{}{{"Country/Region", "Metric", "Number"}}
	if wa == nil {
		return rows
	}
	for _, v := range wa.Combined {
		rows = append(rows, []interface{}{v.Country, v.Metric, v.Value})
	}
	return rows
}

// SaveReport 保存到指定路径
func SaveReport(path string, report *processor.Report, wa *processor.WorldAnalysis) error {
	f, err := BuildWorkbook(report, wa)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

// ExportReport 在dir下生成带时间戳的文件，返回文件路径
func ExportReport(dir string, report *processor.Report, wa *processor.WorldAnalysis) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := fmt.Sprintf("covid_report_%s.xlsx", time.Now().Format("20060102_150405.000"))
	path := filepath.Join(dir, name)
	if err := SaveReport(path, report, wa); err != nil {
		return "", err
	}
	return path, nil
}

// WriteReport 直接写到响应流
func WriteReport(w io.Writer, report *processor.Report, wa *processor.WorldAnalysis) error {
	f, err := BuildWorkbook(report, wa)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}
