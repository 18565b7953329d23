package dataset

import (
	"fmt"
	"math"
	"strings"

	"CovidDashboard/src/utils"

	"github.com/go-gota/gota/series"
)

// textColumn 读取字符串列，缺失值为空串
func textColumn(s series.Series) []string {
	out := make([]string, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		v := strings.TrimSpace(e.String())
		if v == "NaN" {
			v = ""
		}
		out[i] = v
	}
	return out
}

// numericColumn 解析数值列，任一非空单元格无法解析即返回错误
func numericColumn(s series.Series) ([]Number, error) {
	out := make([]Number, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		v, ok, err := utils.ParseNumber(e.String())
		if err != nil {
			return nil, fmt.Errorf("column %s row %d: %w", s.Name, i+1, err)
		}
		if ok {
			out[i] = Num(v)
		}
	}
	return out, nil
}

// coerce 按列规则确定列类型
// 计数列只有在所有有效值都是整数时才转为整数列，失败时记录日志并保留浮点
func coerce(col *Column, values []Number, logger Logger) {
	switch col.Rule {
	case RuleRate:
		col.Kind = KindFloat
	case RuleCount:
		if integral(values) {
			col.Kind = KindInteger
			for i := range values {
				if values[i].Valid {
					values[i].Value = math.Round(values[i].Value)
				}
			}
			return
		}
		col.Kind = KindFloat
		logger.Warning(fmt.Sprintf("无法将列 '%s' 转换为整数，保留为浮点列", col.Name))
	case RuleDate:
		col.Kind = KindDate
	default:
		col.Kind = KindText
	}
}

func integral(values []Number) bool {
	for _, v := range values {
		if !v.Valid {
			continue
		}
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) || v.Value != math.Trunc(v.Value) {
			return false
		}
		if math.Abs(v.Value) > math.MaxInt64/2 {
			return false
		}
	}
	return true
}

// fillZero 缺失值补0
func fillZero(values []Number) {
	for i := range values {
		if !values[i].Valid {
			values[i] = Num(0)
		}
	}
}
