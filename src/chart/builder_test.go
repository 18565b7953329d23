package chart

import (
	"encoding/json"
	"testing"
	"time"

	"CovidDashboard/src/dataset"
	"CovidDashboard/src/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrend(t *testing.T) {
	cfg := Trend([]processor.DailyTotal{
		{Date: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), Confirmed: 100, Deaths: 1.005, Recovered: 3},
		{Date: time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC), Confirmed: 150},
	})
	assert.Equal(t, TypeLine, cfg.ChartType)
	require.Len(t, cfg.Series, 3)
	assert.Equal(t, "Confirmed", cfg.Series[0].Name)
	assert.Equal(t, []ChartPoint{{"2020-03-01", 100}, {"2020-03-02", 150}}, cfg.Series[0].Data)
	assert.Len(t, cfg.Colors, 3)

	empty := Trend(nil)
	require.Len(t, empty.Series, 3)
	assert.NotNil(t, empty.Series[0].Data)
	assert.Empty(t, empty.Series[0].Data)
}

func TestBarCharts(t *testing.T) {
	regions := RegionDeaths([]processor.RegionMean{
		{Region: "Europe", Mean: dataset.Num(8.6666), Count: 6},
		{Region: "Nowhere", Mean: dataset.Null()},
	})
	assert.Equal(t, TypeBar, regions.ChartType)
	assert.Equal(t, []ChartPoint{{"Europe", 8.67}}, regions.Series[0].Data)

	top := TopAffected([]processor.CountryPeak{{Country: "Spain", Confirmed: 210}, {Country: "Italy", Confirmed: 200}})
	assert.Equal(t, "Top 2 Most Affected Countries", top.Title)
	assert.Len(t, top.Series[0].Data, 2)

	metric := MetricTop(dataset.ColTotalCases, []processor.MetricValue{{Country: "USA", Metric: dataset.ColTotalCases, Value: 5}})
	assert.Equal(t, dataset.ColTotalCases, metric.YAxis)
}

func TestDistribution(t *testing.T) {
	charts := Distribution([]processor.CaseShare{{Country: "Italy", Active: 170, Recovered: 10, Deaths: 20}})
	require.Len(t, charts, 1)
	pie := charts[0]
	assert.Equal(t, TypePie, pie.ChartType)
	assert.Equal(t, "Italy Case Distribution", pie.Title)
	assert.Equal(t, []string{"#1E90FF", "#2ECC71", "#E74C3C"}, pie.Colors)
	assert.Equal(t, []ChartPoint{{"Active", 170}, {"Recovered", 10}, {"Deaths", 20}}, pie.Series[0].Data)
	assert.False(t, pie.ShowGrid)
}

func TestCombined(t *testing.T) {
	cfg := Combined([]processor.MetricValue{
		{Country: "Italy", Metric: "TotalTests", Value: 7},
		{Country: "France", Metric: "TotalTests", Value: 5},
		{Country: "Italy", Metric: "TotalDeaths", Value: 3},
		{Country: "France", Metric: "TotalDeaths", Value: 2},
	})
	assert.Equal(t, TypeGroupedBar, cfg.ChartType)
	require.Len(t, cfg.Series, 2)
	assert.Equal(t, "TotalTests", cfg.Series[0].Name)
	assert.Equal(t, []ChartPoint{{"Italy", 3}, {"France", 2}}, cfg.Series[1].Data)
}

func TestHeatmap(t *testing.T) {
	m := &processor.CorrelationMatrix{
		Columns: []string{"a", "b"},
		Values: [][]dataset.Number{
			{dataset.Num(1), dataset.Num(0.12345)},
			{dataset.Num(0.12345), dataset.Null()},
		},
	}
	cfg := Heatmap(m)
	require.NotNil(t, cfg.Matrix)
	assert.Equal(t, []string{"a", "b"}, cfg.Matrix.X)
	require.NotNil(t, cfg.Matrix.Z[0][1])
	assert.Equal(t, 0.12, *cfg.Matrix.Z[0][1])
	assert.Equal(t, "0.12", cfg.Matrix.Labels[0][1])
	assert.Nil(t, cfg.Matrix.Z[1][1])

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"z":[[1,0.12],[0.12,null]]`)
}

func TestForReport(t *testing.T) {
	r := &processor.Report{
		Top:          []processor.CountryPeak{{Country: "Italy", Confirmed: 1}},
		Distribution: []processor.CaseShare{{Country: "Italy"}},
	}
	charts := ForReport(r)
	assert.NotNil(t, charts.Trend)
	assert.NotNil(t, charts.Regions)
	assert.Len(t, charts.Distribution, 1)
}
