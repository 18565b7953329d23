package dataset

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"CovidDashboard/src/config"
	"CovidDashboard/src/datasource/file"
	"CovidDashboard/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// TimeSeriesRecord 每个国家每天一行
type TimeSeriesRecord struct {
	Date         time.Time `json:"date"`
	Country      string    `json:"country"`
	WHORegion    string    `json:"who_region"`
	Confirmed    Number    `json:"confirmed"`
	Deaths       Number    `json:"deaths"`
	Recovered    Number    `json:"recovered"`
	Active       Number    `json:"active"`
	NewCases     Number    `json:"new_cases"`
	NewDeaths    Number    `json:"new_deaths"`
	NewRecovered Number    `json:"new_recovered"`
}

// FrameRow 索引表中记录下标所在的列
const FrameRow = "row"

// Grouped 时间序列表，加载后只读
type Grouped struct {
	Columns []Column           `json:"columns"`
	Records []TimeSeriesRecord `json:"records"`

	frameOnce sync.Once
	frame     dataframe.DataFrame
}

// Len 行数
func (g *Grouped) Len() int { return len(g.Records) }

// Frame 返回筛选用的索引表: row、Date(yyyy-mm-dd)、Country/Region、WHO Region
// row为记录在Records中的下标，首次调用时构建
func (g *Grouped) Frame() dataframe.DataFrame {
	g.frameOnce.Do(func() {
		n := len(g.Records)
		rows := make([]int, n)
		dates := make([]string, n)
		countries := make([]string, n)
		regions := make([]string, n)
		for i, r := range g.Records {
			rows[i] = i
			dates[i] = r.Date.Format(time.DateOnly)
			countries[i] = r.Country
			regions[i] = r.WHORegion
		}
		g.frame = dataframe.New(
			series.New(rows, series.Int, FrameRow),
			series.New(dates, series.String, ColDate),
			series.New(countries, series.String, ColCountry),
			series.New(regions, series.String, ColRegion),
		)
	})
	return g.frame
}

// Options 侧边栏可选项
type Options struct {
	Regions   []string  `json:"regions"`
	Countries []string  `json:"countries"`
	MinDate   time.Time `json:"min_date"`
	MaxDate   time.Time `json:"max_date"`
}

// Options 返回去重排序后的地区、国家以及日期范围
func (g *Grouped) Options() Options {
	regionSet := make(map[string]bool)
	countrySet := make(map[string]bool)
	var opts Options

	for i, r := range g.Records {
		if r.WHORegion != "" && !regionSet[r.WHORegion] {
			regionSet[r.WHORegion] = true
			opts.Regions = append(opts.Regions, r.WHORegion)
		}
		if r.Country != "" && !countrySet[r.Country] {
			countrySet[r.Country] = true
			opts.Countries = append(opts.Countries, r.Country)
		}
		if i == 0 || r.Date.Before(opts.MinDate) {
			opts.MinDate = r.Date
		}
		if i == 0 || r.Date.After(opts.MaxDate) {
			opts.MaxDate = r.Date
		}
	}
	sort.Strings(opts.Regions)
	sort.Strings(opts.Countries)
	return opts
}

// LoadGrouped 读取时间序列表
func LoadGrouped(path string, opts file.ReadOptions, dcfg *config.DataConfig, logger Logger) (*Grouped, error) {
	df, err := file.ReadTable(path, opts)
	if err != nil {
		return nil, fmt.Errorf("load grouped data: %w", err)
	}
	return BuildGrouped(df, dcfg, logger)
}

// 时间序列表的数值列，required为true的列缺失时加载失败
var groupedMetrics = []struct {
	name     string
	required bool
	field    func(*TimeSeriesRecord) *Number
}{
	{ColConfirmed, true, func(r *TimeSeriesRecord) *Number { return &r.Confirmed }},
	{ColDeaths, true, func(r *TimeSeriesRecord) *Number { return &r.Deaths }},
	{ColRecovered, true, func(r *TimeSeriesRecord) *Number { return &r.Recovered }},
	{ColActive, false, func(r *TimeSeriesRecord) *Number { return &r.Active }},
	{ColNewCases, false, func(r *TimeSeriesRecord) *Number { return &r.NewCases }},
	{ColNewDeaths, false, func(r *TimeSeriesRecord) *Number { return &r.NewDeaths }},
	{ColNewRecovered, false, func(r *TimeSeriesRecord) *Number { return &r.NewRecovered }},
}

// BuildGrouped 解析日期列并转换计数列
func BuildGrouped(df dataframe.DataFrame, dcfg *config.DataConfig, logger Logger) (*Grouped, error) {
	if logger == nil {
		logger = nopLogger{}
	}

	dateCol := dcfg.GetColumn(ColDate)
	countryCol := dcfg.GetColumn(ColCountry)
	regionCol := dcfg.GetColumn(ColRegion)
	for _, name := range []string{dateCol, countryCol, regionCol} {
		if !utils.HasColumn(df, name) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	n := df.Nrow()
	records := make([]TimeSeriesRecord, n)

	dates := textColumn(df.Col(dateCol))
	countries := textColumn(df.Col(countryCol))
	regions := textColumn(df.Col(regionCol))
	for i := 0; i < n; i++ {
		d, err := utils.ParseDate(dates[i])
		if err != nil {
			return nil, fmt.Errorf("parse %s at row %d: %w", dateCol, i+2, err)
		}
		records[i].Date = d
		records[i].Country = countries[i]
		records[i].WHORegion = regions[i]
	}

	columns := []Column{
		{Name: ColDate, Rule: RuleDate, Kind: KindDate},
		{Name: ColCountry, Rule: RuleText, Kind: KindText},
		{Name: ColRegion, Rule: RuleText, Kind: KindText},
	}

	for _, m := range groupedMetrics {
		name := dcfg.GetColumn(m.name)
		var nums []Number
		if utils.HasColumn(df, name) {
			var err error
			nums, err = numericColumn(df.Col(name))
			if err != nil {
				if m.required {
					return nil, fmt.Errorf("parse grouped data: %w", err)
				}
				logger.Warning(fmt.Sprintf("列 '%s' 无法解析为数值，按缺失处理: %v", name, err))
				nums = make([]Number, n)
			}
		} else {
			if m.required {
				return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
			}
			nums = make([]Number, n)
		}

		col := Column{Name: m.name, Rule: RuleCount}
		coerce(&col, nums, logger)
		if dcfg.ShouldFill() {
			fillZero(nums)
		}
		columns = append(columns, col)

		for i := range records {
			*m.field(&records[i]) = nums[i]
		}
	}

	return &Grouped{Columns: columns, Records: records}, nil
}
