package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"CovidDashboard/src/chart"
	"CovidDashboard/src/config"
	"CovidDashboard/src/datasource/file"
	"CovidDashboard/src/dataset"
	"CovidDashboard/src/processor"
	"CovidDashboard/src/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type staticSource struct {
	world   *dataset.World
	grouped *dataset.Grouped
}

func (s staticSource) Snapshot() (*dataset.World, *dataset.Grouped, error) {
	if s.world == nil || s.grouped == nil {
		return nil, nil, dataset.ErrNotLoaded
	}
	return s.world, s.grouped, nil
}

func newTestServer(t *testing.T) (*Server, *storage.Logger) {
	t.Helper()
	_, dcfg := config.Default()
	testdata := filepath.Join("..", "dataset", "testdata")

	world, err := dataset.LoadWorld(filepath.Join(testdata, "worldometer_data.csv"), file.ReadOptions{}, dcfg, nil)
	require.NoError(t, err)
	grouped, err := dataset.LoadGrouped(filepath.Join(testdata, "full_grouped.csv"), file.ReadOptions{}, dcfg, nil)
	require.NoError(t, err)

	logger, err := storage.NewLogger(filepath.Join(t.TempDir(), "test.log"))
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	return NewServer(":0", staticSource{world: world, grouped: grouped}, dcfg, logger), logger
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

type reportBody struct {
	Report struct {
		Rows  int                     `json:"rows"`
		Trend []processor.DailyTotal  `json:"trend"`
		Top   []processor.CountryPeak `json:"top"`
	} `json:"report"`
	Charts struct {
		Trend        *chart.ChartConfig   `json:"trend"`
		Distribution []*chart.ChartConfig `json:"distribution"`
	} `json:"charts"`
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) reportBody {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body reportBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOptions(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/options")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var opts dataset.Options
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"Americas", "Europe"}, opts.Regions)
	assert.Equal(t, time.Date(2020, 3, 3, 0, 0, 0, 0, time.UTC), opts.MaxDate)
}

func TestReportDefaults(t *testing.T) {
	s, _ := newTestServer(t)
	body := decodeReport(t, get(t, s.Handler(), "/api/report"))

	assert.Equal(t, 9, body.Report.Rows)
	require.Len(t, body.Report.Trend, 3)
	assert.Equal(t, 182.0, body.Report.Trend[0].Confirmed)
	require.NotEmpty(t, body.Report.Top)
	assert.Equal(t, "Spain", body.Report.Top[0].Country)
	assert.Len(t, body.Charts.Distribution, len(body.Report.Top))
	assert.Equal(t, chart.TypeLine, body.Charts.Trend.ChartType)
}

func TestReportFilters(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	body := decodeReport(t, get(t, h, "/api/report?region=Europe&start=2020-03-02&end=2020-03-02"))
	assert.Equal(t, 2, body.Report.Rows)
	require.Len(t, body.Report.Trend, 1)
	assert.Equal(t, 270.0, body.Report.Trend[0].Confirmed)

	body = decodeReport(t, get(t, h, "/api/report?country=Italy&country=Brazil"))
	assert.Equal(t, 6, body.Report.Rows)

	// 取消全选后没有地区，结果为空而不是错误
	body = decodeReport(t, get(t, h, "/api/report?all_regions=false"))
	assert.Equal(t, 0, body.Report.Rows)
	assert.NotNil(t, body.Report.Trend)
	assert.Empty(t, body.Report.Trend)
	assert.Empty(t, body.Report.Top)
}

func TestReportBadRequest(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	for _, target := range []string{
		"/api/report?start=yesterday",
		"/api/report?end=2020-13-45",
		"/api/report?start=2020-03-03&end=2020-03-01",
		"/api/report?all_regions=maybe",
		"/api/report?region=Europe&all_regions=bogus",
		"/api/export?start=2020-03-03&end=2020-03-01",
		"/api/world?top=-1",
	} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "error", target)
	}
}

func TestParseSelectionRegions(t *testing.T) {
	opts := dataset.Options{Regions: []string{"Americas", "Europe"}}

	sel, err := ParseSelection(map[string][]string{"region": {"Europe"}, "all_regions": {"true"}}, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Europe"}, sel.Regions)

	sel, err = ParseSelection(map[string][]string{"all_regions": {"false"}}, opts)
	require.NoError(t, err)
	assert.Empty(t, sel.Regions)

	_, err = ParseSelection(map[string][]string{"region": {"Europe"}, "all_regions": {"bogus"}}, opts)
	assert.Error(t, err)
}

func TestNotLoaded(t *testing.T) {
	s, _ := newTestServer(t)
	s.source = staticSource{}
	h := s.Handler()
	for _, target := range []string{"/api/options", "/api/report", "/api/world", "/api/export"} {
		assert.Equal(t, http.StatusServiceUnavailable, get(t, h, target).Code, target)
	}
}

func TestWorld(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/world?top=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Analysis struct {
			TopByMetric map[string][]processor.MetricValue `json:"top_by_metric"`
			Combined    []processor.MetricValue            `json:"combined"`
		} `json:"analysis"`
		Charts struct {
			Heatmap *chart.ChartConfig   `json:"heatmap"`
			Metrics []*chart.ChartConfig `json:"metrics"`
		} `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	cases := body.Analysis.TopByMetric[dataset.ColTotalCases]
	require.Len(t, cases, 3)
	assert.Equal(t, "USA", cases[0].Country)
	assert.Len(t, body.Analysis.Combined, 12)
	assert.Equal(t, chart.TypeHeatmap, body.Charts.Heatmap.ChartType)
	assert.Len(t, body.Charts.Metrics, 4)
}

func TestExport(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/export?region=Europe")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Top5")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Spain", rows[1][0])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()
	get(t, h, "/api/options")

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "covid_dashboard_renders_total")
}

func TestLogsStream(t *testing.T) {
	s, logger := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/logs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	logger.Info("hello dashboard")

	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if strings.Contains(scanner.Text(), "hello dashboard") {
				lines <- scanner.Text()
				return
			}
		}
	}()

	select {
	case line := <-lines:
		assert.Contains(t, line, "INFO: hello dashboard")
	case <-time.After(3 * time.Second):
		t.Fatal("log line not received")
	}
}

func TestShutdownWithLogsClient(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/logs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	begin := time.Now()
	require.NoError(t, s.Shutdown(ctx))
	assert.Less(t, time.Since(begin), time.Second)
	assert.NoError(t, <-served)
}
