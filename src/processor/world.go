package processor

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"CovidDashboard/src/dataset"

	"gonum.org/v1/gonum/stat"
)

var ErrUnknownMetric = errors.New("unknown metric column")

// 世界页面展示的四个累计指标
var WorldTotals = []string{
	dataset.ColTotalTests,
	dataset.ColTotalCases,
	dataset.ColTotalDeaths,
	dataset.ColTotalRecovered,
}

// MetricValue 单个国家单个指标
type MetricValue struct {
	Country string  `json:"country"`
	Metric  string  `json:"metric"`
	Value   float64 `json:"value"`
}

// CorrelationMatrix 数值列两两之间的皮尔逊相关系数
type CorrelationMatrix struct {
	Columns []string           `json:"columns"`
	Values  [][]dataset.Number `json:"values"`
}

// At 取第i行第j列
func (m *CorrelationMatrix) At(i, j int) dataset.Number {
	return m.Values[i][j]
}

// sumByCountry 按国家汇总指标，保持首次出现顺序
func sumByCountry(world *dataset.World, metrics []string) ([]string, map[string][]float64, error) {
	for _, metric := range metrics {
		if _, ok := world.Column(metric); !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
		}
	}

	var order []string
	sums := make(map[string][]float64)
	for _, row := range world.Rows {
		vals, ok := sums[row.Country]
		if !ok {
			vals = make([]float64, len(metrics))
			sums[row.Country] = vals
			order = append(order, row.Country)
		}
		for i, metric := range metrics {
			vals[i] += row.Metric(metric).Or(0)
		}
	}
	return order, sums, nil
}

// TopByMetric 指定指标合计最高的n个国家，降序
func TopByMetric(world *dataset.World, metric string, n int) ([]MetricValue, error) {
	order, sums, err := sumByCountry(world, []string{metric})
	if err != nil {
		return nil, err
	}

	top := make([]MetricValue, 0, len(order))
	for _, country := range order {
		top = append(top, MetricValue{Country: country, Metric: metric, Value: sums[country][0]})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Value > top[j].Value
	})
	if n >= 0 && len(top) > n {
		top = top[:n]
	}
	return top, nil
}

// CombinedTop 按死亡总数取前n个国家，再把四个累计指标展开为长表
// 输出按指标分块，块内保持国家排名顺序
func CombinedTop(world *dataset.World, n int) ([]MetricValue, error) {
	order, sums, err := sumByCountry(world, WorldTotals)
	if err != nil {
		return nil, err
	}

	deathsIdx := 2
	sort.SliceStable(order, func(i, j int) bool {
		return sums[order[i]][deathsIdx] > sums[order[j]][deathsIdx]
	})
	if n >= 0 && len(order) > n {
		order = order[:n]
	}

	melted := make([]MetricValue, 0, len(order)*len(WorldTotals))
	for i, metric := range WorldTotals {
		for _, country := range order {
			melted = append(melted, MetricValue{Country: country, Metric: metric, Value: sums[country][i]})
		}
	}
	return melted, nil
}

// Correlation 对快照表所有数值列计算相关系数矩阵
// 每一对列只使用两者都有值的行，无法计算时为缺失
func Correlation(world *dataset.World) *CorrelationMatrix {
	cols := world.NumericColumns()
	m := &CorrelationMatrix{
		Columns: cols,
		Values:  make([][]dataset.Number, len(cols)),
	}
	for i := range m.Values {
		m.Values[i] = make([]dataset.Number, len(cols))
	}

	for i := range cols {
		for j := i; j < len(cols); j++ {
			c := pairwise(world, cols[i], cols[j])
			if i == j && c.Valid {
				c = dataset.Num(1)
			}
			m.Values[i][j] = c
			m.Values[j][i] = c
		}
	}
	return m
}

func pairwise(world *dataset.World, a, b string) dataset.Number {
	x := make([]float64, 0, world.Len())
	y := make([]float64, 0, world.Len())
	for _, row := range world.Rows {
		va, vb := row.Metric(a), row.Metric(b)
		if !va.Valid || !vb.Valid {
			continue
		}
		x = append(x, va.Value)
		y = append(y, vb.Value)
	}
	if len(x) < 2 {
		return dataset.Null()
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return dataset.Null()
	}
	return dataset.Num(c)
}

// Head 预览前n行
func Head[T any](rows []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}
	return append([]T(nil), rows[:n]...)
}

// WorldAnalysis 世界页面的全部结果
type WorldAnalysis struct {
	Preview     []dataset.WorldSnapshot  `json:"preview"`
	Correlation *CorrelationMatrix       `json:"correlation"`
	TopByMetric map[string][]MetricValue `json:"top_by_metric"`
	Combined    []MetricValue            `json:"combined"`
}

// AnalyzeWorld 计算世界页面的相关矩阵和各项排名
// 快照表缺少某个累计指标时该项排名为空
func AnalyzeWorld(world *dataset.World, n int) *WorldAnalysis {
	wa := &WorldAnalysis{
		Preview:     Head(world.Rows, 5),
		Correlation: Correlation(world),
		TopByMetric: make(map[string][]MetricValue, len(WorldTotals)),
		Combined:    []MetricValue{},
	}
	for _, metric := range WorldTotals {
		top, err := TopByMetric(world, metric, n)
		if err != nil {
			top = []MetricValue{}
		}
		wa.TopByMetric[metric] = top
	}
	if combined, err := CombinedTop(world, n); err == nil {
		wa.Combined = combined
	}
	return wa
}
