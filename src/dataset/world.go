package dataset

import (
	"fmt"

	"CovidDashboard/src/config"
	"CovidDashboard/src/datasource/file"
	"CovidDashboard/src/utils"

	"github.com/go-gota/gota/dataframe"
)

// WorldSnapshot 每个国家一行的累计数据
type WorldSnapshot struct {
	Country   string            `json:"country"`
	Continent string            `json:"continent"`
	WHORegion string            `json:"who_region"`
	Values    map[string]Number `json:"values"`
}

// Metric 按列名取值，列不存在时为缺失
func (s WorldSnapshot) Metric(name string) Number {
	return s.Values[name]
}

// World 快照表，加载后只读
type World struct {
	Columns []Column        `json:"columns"` // 数值列，保持文件中的顺序
	Rows    []WorldSnapshot `json:"rows"`
}

// Len 行数
func (w *World) Len() int { return len(w.Rows) }

// NumericColumns 数值列名
func (w *World) NumericColumns() []string {
	names := make([]string, 0, len(w.Columns))
	for _, c := range w.Columns {
		if c.IsNumeric() {
			names = append(names, c.Name)
		}
	}
	return names
}

// Column 查找列信息
func (w *World) Column(name string) (Column, bool) {
	for _, c := range w.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// LoadWorld 读取并清洗快照表
func LoadWorld(path string, opts file.ReadOptions, dcfg *config.DataConfig, logger Logger) (*World, error) {
	df, err := file.ReadTable(path, opts)
	if err != nil {
		return nil, fmt.Errorf("load world data: %w", err)
	}
	return BuildWorld(df, dcfg, logger)
}

// 快照表中已知的数值列
var worldMetrics = []string{ColTotalCases, ColTotalDeaths, ColTotalRecovered, ColTotalTests}

// BuildWorld 对快照表执行清洗:
//  1. 计数列转为整数(每百万人口列除外)
//  2. 剔除非国家条目
//  3. WHO Region缺失时用Continent回填
//  4. 按配置将剩余缺失值补0
func BuildWorld(df dataframe.DataFrame, dcfg *config.DataConfig, logger Logger) (*World, error) {
	if logger == nil {
		logger = nopLogger{}
	}

	countryCol := dcfg.GetColumn(ColCountry)
	if !utils.HasColumn(df, countryCol) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, countryCol)
	}
	continentCol := dcfg.GetColumn(ColContinent)
	regionCol := dcfg.GetColumn(ColRegion)

	n := df.Nrow()
	countries := textColumn(df.Col(countryCol))
	continents := make([]string, n)
	if utils.HasColumn(df, continentCol) {
		continents = textColumn(df.Col(continentCol))
	}
	regions := make([]string, n)
	if utils.HasColumn(df, regionCol) {
		regions = textColumn(df.Col(regionCol))
	}

	// 文件列名 -> 逻辑列名
	logical := make(map[string]string, len(worldMetrics))
	for _, name := range worldMetrics {
		logical[dcfg.GetColumn(name)] = name
	}
	rates := utils.ToSet(dcfg.RateColumns)

	var (
		columns []Column
		values  [][]Number
	)
	for _, name := range df.Names() {
		if name == countryCol || name == continentCol || name == regionCol {
			continue
		}
		nums, err := numericColumn(df.Col(name))
		if err != nil {
			// 非数值列不参与数值分析
			logger.Info(fmt.Sprintf("跳过非数值列 '%s'", name))
			continue
		}

		key := name
		if l, ok := logical[name]; ok {
			key = l
		}
		col := Column{Name: key, Rule: RuleCount}
		if rates[name] || rates[key] {
			col.Rule = RuleRate
		}
		coerce(&col, nums, logger)
		if dcfg.ShouldFill() {
			fillZero(nums)
		}
		columns = append(columns, col)
		values = append(values, nums)
	}

	excluded := utils.ToSet(dcfg.ExcludedCountries)
	rows := make([]WorldSnapshot, 0, n)
	for i := 0; i < n; i++ {
		if excluded[countries[i]] {
			continue
		}
		region := regions[i]
		if region == "" {
			region = continents[i]
		}
		row := WorldSnapshot{
			Country:   countries[i],
			Continent: continents[i],
			WHORegion: region,
			Values:    make(map[string]Number, len(columns)),
		}
		for j, col := range columns {
			row.Values[col.Name] = values[j][i]
		}
		rows = append(rows, row)
	}

	return &World{Columns: columns, Rows: rows}, nil
}
