// data.go
package processor

import (
	"errors"
	"time"

	"CovidDashboard/src/dataset"
	"CovidDashboard/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var ErrInvalidRange = errors.New("start date is after end date")

// Selection 侧边栏的筛选条件
// Countries为空表示不限国家，Start/End为零值表示不限该端
type Selection struct {
	Regions   []string  `json:"regions"`
	Countries []string  `json:"countries"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Validate 检查日期范围
func (s Selection) Validate() error {
	if !s.Start.IsZero() && !s.End.IsZero() && utils.TruncateDay(s.Start).After(utils.TruncateDay(s.End)) {
		return ErrInvalidRange
	}
	return nil
}

// SelectAll 默认选择: 全部地区，完整日期范围
func SelectAll(opts dataset.Options) Selection {
	return Selection{
		Regions: append([]string(nil), opts.Regions...),
		Start:   opts.MinDate,
		End:     opts.MaxDate,
	}
}

// View 筛选结果，持有记录的私有副本
type View struct {
	records []dataset.TimeSeriesRecord
}

// Len 行数
func (v *View) Len() int { return len(v.records) }

// Records 返回记录副本
func (v *View) Records() []dataset.TimeSeriesRecord {
	return append([]dataset.TimeSeriesRecord(nil), v.records...)
}

type DataProcessor struct {
	grouped *dataset.Grouped
	topN    int
}

// NewDataProcessor topN<=0 时取5
func NewDataProcessor(grouped *dataset.Grouped, topN int) *DataProcessor {
	if topN <= 0 {
		topN = 5
	}
	return &DataProcessor{grouped: grouped, topN: topN}
}

// Filter 按地区、日期(闭区间)和国家筛选时间序列表
// 未选择地区或起始日期晚于结束日期时返回空视图
func (p *DataProcessor) Filter(sel Selection) *View {
	view := &View{}
	if p.grouped == nil || p.grouped.Len() == 0 || len(sel.Regions) == 0 {
		return view
	}
	if sel.Validate() != nil {
		return view
	}

	start := utils.TruncateDay(sel.Start)
	end := utils.TruncateDay(sel.End)
	regions := utils.ToSet(sel.Regions)
	countries := utils.ToSet(sel.Countries)

	filters := []dataframe.F{
		{
			Colname:    dataset.ColRegion,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				return regions[el.String()]
			}},
		{
			Colname:    dataset.ColDate,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				d, err := utils.ParseDate(el.String())
				if err != nil {
					return false
				}
				return (start.IsZero() || !d.Before(start)) && (end.IsZero() || !d.After(end))
			}},
	}
	if len(countries) > 0 {
		filters = append(filters, dataframe.F{
			Colname:    dataset.ColCountry,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				return countries[el.String()]
			}})
	}

	// 多个条件逐个Filter，相当于取交集
	df := p.grouped.Frame()
	for _, f := range filters {
		if df.Nrow() == 0 {
			return view
		}
		df = df.Filter(f)
	}
	if df.Err != nil || df.Nrow() == 0 {
		return view
	}

	rows, err := df.Col(dataset.FrameRow).Int()
	if err != nil {
		return view
	}
	view.records = make([]dataset.TimeSeriesRecord, 0, len(rows))
	for _, i := range rows {
		view.records = append(view.records, p.grouped.Records[i])
	}
	return view
}
