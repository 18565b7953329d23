package chart

import "math"

// 图表类型
const (
	TypeLine       = "line"
	TypeBar        = "bar"
	TypeGroupedBar = "grouped_bar"
	TypePie        = "pie"
	TypeHeatmap    = "heatmap"
)

// ChartConfig 前端渲染所需的图表描述，不涉及像素和布局
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	Matrix     *Matrix       `json:"matrix,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries 一组数据点
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint 单个数据点
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Matrix 热力图数据，缺失格为nil
type Matrix struct {
	X      []string     `json:"x"`
	Y      []string     `json:"y"`
	Z      [][]*float64 `json:"z"`
	Scale  string       `json:"scale"`
	Labels [][]string   `json:"labels"`
}

var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// 饼图固定配色: 现存、治愈、死亡
var distributionColors = []string{"#1E90FF", "#2ECC71", "#E74C3C"}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
