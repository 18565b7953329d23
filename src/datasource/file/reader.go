// reader.go
package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// 统一视为缺失值的单元格内容
var NaNValues = []string{"", "NA", "NaN", "N/A", "nan", "<nil>"}

// ReadOptions 读取表格文件时的选项
type ReadOptions struct {
	Encoding  string // 文件编码，仅对csv生效
	SheetName string // xlsx工作表名称，为空时取第一个
	HeaderRow int    // xlsx标题行(从0开始)
}

// ReadTable 按扩展名把csv或xlsx读取为DataFrame
// 所有列按字符串读取，类型转换由调用方按列规则完成
func ReadTable(filePath string, opts ReadOptions) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		return ReadXLSX(filePath, opts.SheetName, opts.HeaderRow)
	default:
		return ReadCSV(filePath, opts.Encoding)
	}
}

// ReadCSV 读取csv文件
func ReadCSV(filePath, encodingName string) (dataframe.DataFrame, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	r, err := decodeReader(f, encodingName)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(NaNValues),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse csv %s: %w", filePath, df.Err)
	}
	return df, nil
}

// decodeReader 根据编码名称包装reader
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	var enc encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		// 去掉可能存在的BOM
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "gbk", "gb2312":
		enc = simplifiedchinese.GBK
	case "gb18030":
		enc = simplifiedchinese.GB18030
	case "latin1", "iso-8859-1":
		enc = charmap.ISO8859_1
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// ReadXLSX 使用tealeg/xlsx读取工作表并转换为DataFrame
func ReadXLSX(filePath, sheetName string, headerRow int) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("xlsx open file false: %w", err)
	}

	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("excel文件中没有工作表: %s", filePath)
	}

	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("工作表 %s 不存在", sheetName)
		}
		sheet = s
	}

	records, err := sheetRecords(sheet, headerRow)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(NaNValues),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("convert sheet %s: %w", sheet.Name, df.Err)
	}
	return df, nil
}

// sheetRecords 将xlsx.Sheet转换为二维字符串，第一行为标题
func sheetRecords(sheet *xlsx.Sheet, headerRow int) ([][]string, error) {
	if headerRow < 0 || len(sheet.Rows) <= headerRow {
		return nil, fmt.Errorf("sheet %s 没有标题行", sheet.Name)
	}

	var headers []string
	for _, cell := range sheet.Rows[headerRow].Cells {
		headers = append(headers, strings.TrimSpace(cell.Value))
	}
	// 去掉末尾的空标题
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("sheet %s 标题行为空", sheet.Name)
	}

	records := [][]string{headers}
	for _, row := range sheet.Rows[headerRow+1:] {
		if row == nil {
			continue
		}
		rec := make([]string, len(headers))
		empty := true
		for i, cell := range row.Cells {
			if i >= len(headers) {
				break
			}
			rec[i] = cell.Value
			if cell.Value != "" {
				empty = false
			}
		}
		// 跳过完全空的行
		if empty {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
