package chart

import (
	"fmt"

	"CovidDashboard/src/processor"
)

const dateLayout = "2006-01-02"

// Trend 全球趋势折线图，三条曲线共用日期轴
func Trend(trend []processor.DailyTotal) *ChartConfig {
	names := []string{"Confirmed", "Deaths", "Recovered"}
	series := make([]ChartSeries, len(names))
	for i, name := range names {
		series[i] = ChartSeries{Name: name, Data: make([]ChartPoint, 0, len(trend))}
	}
	for _, d := range trend {
		label := d.Date.Format(dateLayout)
		for i, v := range []float64{d.Confirmed, d.Deaths, d.Recovered} {
			series[i].Data = append(series[i].Data, ChartPoint{Label: label, Value: roundTo2(v)})
		}
	}

	colors := assignColors(len(series))
	for i := range series {
		series[i].Color = colors[i]
	}
	return &ChartConfig{
		ChartType:  TypeLine,
		Title:      "Global COVID-19 Progression (Filtered)",
		XAxis:      "Date",
		YAxis:      "Number of Cases",
		Series:     series,
		Colors:     colors,
		ShowLegend: true,
		ShowGrid:   true,
	}
}

// RegionDeaths 各地区死亡均值柱状图，没有均值的地区不画
func RegionDeaths(means []processor.RegionMean) *ChartConfig {
	points := make([]ChartPoint, 0, len(means))
	for _, m := range means {
		if !m.Mean.Valid {
			continue
		}
		points = append(points, ChartPoint{Label: m.Region, Value: roundTo2(m.Mean.Value)})
	}
	return &ChartConfig{
		ChartType: TypeBar,
		Title:     "Average Deaths by Region (Filtered)",
		XAxis:     "WHO Region",
		YAxis:     "Deaths",
		Series:    []ChartSeries{{Name: "Deaths", Data: points}},
		Colors:    assignColors(len(points)),
		ShowGrid:  true,
	}
}

// TopAffected 确诊最大值排名柱状图
func TopAffected(top []processor.CountryPeak) *ChartConfig {
	points := make([]ChartPoint, 0, len(top))
	for _, p := range top {
		points = append(points, ChartPoint{Label: p.Country, Value: roundTo2(p.Confirmed)})
	}
	return &ChartConfig{
		ChartType: TypeBar,
		Title:     fmt.Sprintf("Top %d Most Affected Countries", len(top)),
		XAxis:     "Country/Region",
		YAxis:     "Confirmed",
		Series:    []ChartSeries{{Name: "Confirmed", Data: points}},
		Colors:    assignColors(len(points)),
		ShowGrid:  true,
	}
}

// Distribution 每个国家一张饼图
func Distribution(shares []processor.CaseShare) []*ChartConfig {
	charts := make([]*ChartConfig, 0, len(shares))
	for _, s := range shares {
		charts = append(charts, &ChartConfig{
			ChartType: TypePie,
			Title:     s.Country + " Case Distribution",
			Series: []ChartSeries{{
				Name: s.Country,
				Data: []ChartPoint{
					{Label: "Active", Value: roundTo2(s.Active)},
					{Label: "Recovered", Value: roundTo2(s.Recovered)},
					{Label: "Deaths", Value: roundTo2(s.Deaths)},
				},
			}},
			Colors: distributionColors,
		})
	}
	return charts
}

// MetricTop 单一指标的国家排名
func MetricTop(metric string, top []processor.MetricValue) *ChartConfig {
	points := make([]ChartPoint, 0, len(top))
	for _, v := range top {
		points = append(points, ChartPoint{Label: v.Country, Value: roundTo2(v.Value)})
	}
	return &ChartConfig{
		ChartType: TypeBar,
		Title:     fmt.Sprintf("Top %d Countries by %s", len(top), metric),
		XAxis:     "Country/Region",
		YAxis:     metric,
		Series:    []ChartSeries{{Name: metric, Data: points}},
		Colors:    assignColors(len(points)),
		ShowGrid:  true,
	}
}

// Combined 分组柱状图，每个指标一组
func Combined(melted []processor.MetricValue) *ChartConfig {
	var order []string
	index := make(map[string]int)
	for _, v := range melted {
		i, ok := index[v.Metric]
		if !ok {
			i = len(order)
			index[v.Metric] = i
			order = append(order, v.Metric)
		}
	}

	series := make([]ChartSeries, len(order))
	colors := assignColors(len(order))
	for i, metric := range order {
		series[i] = ChartSeries{Name: metric, Color: colors[i], Data: []ChartPoint{}}
	}
	for _, v := range melted {
		i := index[v.Metric]
		series[i].Data = append(series[i].Data, ChartPoint{Label: v.Country, Value: roundTo2(v.Value)})
	}
	return &ChartConfig{
		ChartType:  TypeGroupedBar,
		Title:      "Top Countries by Deaths, Cases, Tests & Recovery",
		XAxis:      "Country/Region",
		YAxis:      "Number",
		Series:     series,
		Colors:     colors,
		ShowLegend: true,
		ShowGrid:   true,
	}
}

// Heatmap 相关系数矩阵
func Heatmap(m *processor.CorrelationMatrix) *ChartConfig {
	n := len(m.Columns)
	mat := &Matrix{
		X:      append([]string(nil), m.Columns...),
		Y:      append([]string(nil), m.Columns...),
		Z:      make([][]*float64, n),
		Labels: make([][]string, n),
		Scale:  "RdBu",
	}
	for i := 0; i < n; i++ {
		mat.Z[i] = make([]*float64, n)
		mat.Labels[i] = make([]string, n)
		for j := 0; j < n; j++ {
			c := m.At(i, j)
			if !c.Valid {
				continue
			}
			v := roundTo2(c.Value)
			mat.Z[i][j] = &v
			mat.Labels[i][j] = fmt.Sprintf("%.2f", v)
		}
	}
	return &ChartConfig{
		ChartType:  TypeHeatmap,
		Title:      "Correlation Matrix of World COVID-19 Indicators",
		Series:     []ChartSeries{},
		Matrix:     mat,
		ShowLegend: true,
	}
}

// ReportCharts 筛选页面的全部图表
type ReportCharts struct {
	Trend        *ChartConfig   `json:"trend"`
	Regions      *ChartConfig   `json:"regions"`
	Top          *ChartConfig   `json:"top"`
	Distribution []*ChartConfig `json:"distribution"`
}

func ForReport(r *processor.Report) ReportCharts {
	return ReportCharts{
		Trend:        Trend(r.Trend),
		Regions:      RegionDeaths(r.RegionMeans),
		Top:          TopAffected(r.Top),
		Distribution: Distribution(r.Distribution),
	}
}

// WorldCharts 世界页面的全部图表
type WorldCharts struct {
	Heatmap  *ChartConfig   `json:"heatmap"`
	Metrics  []*ChartConfig `json:"metrics"`
	Combined *ChartConfig   `json:"combined"`
}

func ForWorld(wa *processor.WorldAnalysis) WorldCharts {
	charts := WorldCharts{
		Heatmap:  Heatmap(wa.Correlation),
		Metrics:  make([]*ChartConfig, 0, len(processor.WorldTotals)),
		Combined: Combined(wa.Combined),
	}
	for _, metric := range processor.WorldTotals {
		charts.Metrics = append(charts.Metrics, MetricTop(metric, wa.TopByMetric[metric]))
	}
	return charts
}
