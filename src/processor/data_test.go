package processor

import (
	"testing"
	"time"

	"CovidDashboard/src/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2020, 3, d, 0, 0, 0, 0, time.UTC)
}

func rec(d int, country, region string, confirmed, deaths, recovered, active float64) dataset.TimeSeriesRecord {
	return dataset.TimeSeriesRecord{
		Date:      day(d),
		Country:   country,
		WHORegion: region,
		Confirmed: dataset.Num(confirmed),
		Deaths:    dataset.Num(deaths),
		Recovered: dataset.Num(recovered),
		Active:    dataset.Num(active),
	}
}

func sampleGrouped() *dataset.Grouped {
	return &dataset.Grouped{Records: []dataset.TimeSeriesRecord{
		rec(1, "Italy", "Europe", 100, 10, 5, 85),
		rec(1, "Spain", "Europe", 80, 2, 1, 77),
		rec(1, "Brazil", "Americas", 2, 0, 0, 2),
		rec(1, "India", "South-East Asia", 5, 0, 0, 5),
		rec(2, "Italy", "Europe", 150, 12, 8, 130),
		rec(2, "Spain", "Europe", 120, 3, 2, 115),
		rec(2, "Brazil", "Americas", 3, 1, 0, 2),
		rec(2, "India", "South-East Asia", 7, 0, 1, 6),
		rec(3, "Italy", "Europe", 200, 20, 10, 170),
		rec(3, "Spain", "Europe", 210, 5, 4, 201),
		rec(3, "Brazil", "Americas", 4, 1, 1, 2),
		rec(3, "India", "South-East Asia", 9, 1, 1, 7),
	}}
}

var allRegions = []string{"Europe", "Americas", "South-East Asia"}

func TestFilterItalyExample(t *testing.T) {
	g := &dataset.Grouped{Records: []dataset.TimeSeriesRecord{
		rec(1, "Italy", "Europe", 100, 0, 0, 100),
		rec(2, "Italy", "Europe", 150, 0, 0, 150),
	}}
	p := NewDataProcessor(g, 5)
	view := p.Filter(Selection{Regions: []string{"Europe"}, Start: day(1), End: day(2)})
	require.Equal(t, 2, view.Len())

	trend := view.GlobalTrend()
	require.Len(t, trend, 2)
	assert.Equal(t, 100.0, trend[0].Confirmed)
	assert.Equal(t, 150.0, trend[1].Confirmed)
	assert.Equal(t, 250.0, trend[0].Confirmed+trend[1].Confirmed)
}

func TestFilterConstraints(t *testing.T) {
	p := NewDataProcessor(sampleGrouped(), 5)

	tests := []struct {
		name string
		sel  Selection
		rows int
	}{
		{"all", Selection{Regions: allRegions, Start: day(1), End: day(3)}, 12},
		{"single day", Selection{Regions: allRegions, Start: day(2), End: day(2)}, 4},
		{"region", Selection{Regions: []string{"Europe"}, Start: day(1), End: day(3)}, 6},
		{"country", Selection{Regions: allRegions, Countries: []string{"Brazil"}, Start: day(1), End: day(3)}, 3},
		{"country outside region", Selection{Regions: []string{"Europe"}, Countries: []string{"Brazil"}, Start: day(1), End: day(3)}, 0},
		{"no regions", Selection{Start: day(1), End: day(3)}, 0},
		{"inverted range", Selection{Regions: allRegions, Start: day(3), End: day(1)}, 0},
		{"open range", Selection{Regions: allRegions}, 12},
		{"range with time of day", Selection{Regions: allRegions, Start: day(2).Add(13 * time.Hour), End: day(3).Add(time.Hour)}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := p.Filter(tt.sel)
			assert.Equal(t, tt.rows, view.Len())
			regions := make(map[string]bool)
			for _, r := range tt.sel.Regions {
				regions[r] = true
			}
			for _, r := range view.Records() {
				assert.True(t, regions[r.WHORegion])
				if !tt.sel.Start.IsZero() {
					assert.False(t, r.Date.Before(day(tt.sel.Start.Day())))
				}
				if !tt.sel.End.IsZero() {
					assert.False(t, r.Date.After(day(tt.sel.End.Day())))
				}
			}
		})
	}
}

func TestFilterKeepsRecordOrder(t *testing.T) {
	g := sampleGrouped()
	p := NewDataProcessor(g, 5)

	view := p.Filter(Selection{Regions: []string{"Europe", "Americas"}, Countries: []string{"Spain", "Brazil"}, Start: day(2)})
	require.Equal(t, 4, view.Len())
	assert.Equal(t, []dataset.TimeSeriesRecord{g.Records[5], g.Records[6], g.Records[9], g.Records[10]}, view.Records())

	// 索引表与记录一一对应
	frame := g.Frame()
	assert.Equal(t, []string{dataset.FrameRow, dataset.ColDate, dataset.ColCountry, dataset.ColRegion}, frame.Names())
	assert.Equal(t, g.Len(), frame.Nrow())
	assert.Equal(t, "2020-03-03", frame.Elem(11, 1).String())
	assert.Equal(t, "India", frame.Elem(11, 2).String())
}

func TestFilterEmptyGrouped(t *testing.T) {
	assert.Equal(t, 0, NewDataProcessor(&dataset.Grouped{}, 5).Filter(Selection{Regions: allRegions}).Len())
	assert.Equal(t, 0, NewDataProcessor(nil, 5).Filter(Selection{Regions: allRegions}).Len())
	assert.Equal(t, 0, NewDataProcessor(sampleGrouped(), 5).Filter(Selection{Regions: []string{"Africa"}}).Len())
}

func TestViewIsPrivateCopy(t *testing.T) {
	g := sampleGrouped()
	p := NewDataProcessor(g, 5)
	view := p.Filter(Selection{Regions: allRegions})

	rows := view.Records()
	rows[0].Confirmed = dataset.Num(-1)
	assert.Equal(t, 100.0, g.Records[0].Confirmed.Value)
	assert.Equal(t, 100.0, view.Records()[0].Confirmed.Value)
}

func TestSelectionValidate(t *testing.T) {
	assert.NoError(t, Selection{Start: day(1), End: day(1)}.Validate())
	assert.NoError(t, Selection{}.Validate())
	assert.ErrorIs(t, Selection{Start: day(2), End: day(1)}.Validate(), ErrInvalidRange)

	sel := SelectAll(dataset.Options{Regions: []string{"Europe"}, MinDate: day(1), MaxDate: day(3)})
	assert.Equal(t, []string{"Europe"}, sel.Regions)
	assert.Empty(t, sel.Countries)
	assert.Equal(t, day(1), sel.Start)
	assert.Equal(t, day(3), sel.End)
}
