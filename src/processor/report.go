package processor

import "time"

// Report 一次渲染所需的全部聚合结果
type Report struct {
	Selection    Selection     `json:"selection"`
	Rows         int           `json:"rows"`
	Trend        []DailyTotal  `json:"trend"`
	RegionMeans  []RegionMean  `json:"region_means"`
	Top          []CountryPeak `json:"top"`
	Distribution []CaseShare   `json:"distribution"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// TopCountries 排名中的国家名
func (r *Report) TopCountries() []string {
	names := make([]string, 0, len(r.Top))
	for _, p := range r.Top {
		names = append(names, p.Country)
	}
	return names
}

// Report 每次都从完整数据重新计算
// 饼图对应确诊排名前topN的国家
func (p *DataProcessor) Report(sel Selection) *Report {
	view := p.Filter(sel)
	r := &Report{
		Selection:   sel,
		Rows:        view.Len(),
		Trend:       view.GlobalTrend(),
		RegionMeans: view.RegionDeathMeans(),
		Top:         view.TopAffected(p.topN),
		GeneratedAt: time.Now(),
	}
	r.Distribution = view.CaseDistribution(r.TopCountries())
	return r
}
