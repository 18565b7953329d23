package dataset

import (
	"errors"
	"math"
	"strconv"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrNotLoaded     = errors.New("dataset not loaded")
)

// 数据文件中的逻辑列名，实际列名可通过DataConfig.Columns映射
const (
	ColCountry        = "Country/Region"
	ColContinent      = "Continent"
	ColRegion         = "WHO Region"
	ColDate           = "Date"
	ColConfirmed      = "Confirmed"
	ColDeaths         = "Deaths"
	ColRecovered      = "Recovered"
	ColActive         = "Active"
	ColNewCases       = "New cases"
	ColNewDeaths      = "New deaths"
	ColNewRecovered   = "New recovered"
	ColTotalCases     = "TotalCases"
	ColTotalDeaths    = "TotalDeaths"
	ColTotalRecovered = "TotalRecovered"
	ColTotalTests     = "TotalTests"
)

// Number 可空数值，Valid为false表示缺失
type Number struct {
	Value float64
	Valid bool
}

// Num 构造有效数值
func Num(v float64) Number { return Number{Value: v, Valid: true} }

// Null 缺失值
func Null() Number { return Number{} }

// Or 缺失时返回def
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// Int64 四舍五入为整数，缺失为0
func (n Number) Int64() int64 {
	if !n.Valid {
		return 0
	}
	return int64(math.Round(n.Value))
}

// MarshalJSON 缺失值和NaN输出为null
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// ColumnKind 加载后列的实际类型
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindDate
	KindInteger
	KindFloat
)

func (k ColumnKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// MarshalText 让列类型在JSON中输出为字符串
func (k ColumnKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Rule 每列的转换规则
type Rule int

const (
	RuleText  Rule = iota // 原样保留字符串
	RuleDate              // 解析为日期
	RuleCount             // 计数：全部为整数值时转为整数列，否则保留浮点
	RuleRate              // 比率：保持浮点
)

// Column 列的元信息
type Column struct {
	Name string     `json:"name"`
	Rule Rule       `json:"-"`
	Kind ColumnKind `json:"kind"`
}

// IsNumeric 是否数值列
func (c Column) IsNumeric() bool { return c.Kind == KindInteger || c.Kind == KindFloat }

// Logger 加载过程需要的日志接口，*storage.Logger满足该接口
type Logger interface {
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

type nopLogger struct{}

func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}
