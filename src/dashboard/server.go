package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"CovidDashboard/src/chart"
	"CovidDashboard/src/config"
	"CovidDashboard/src/datapush"
	"CovidDashboard/src/dataset"
	"CovidDashboard/src/metrics"
	"CovidDashboard/src/processor"
	"CovidDashboard/src/storage"
	"CovidDashboard/src/utils"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Source 提供当前数据快照，由 dataset.Loader 实现
type Source interface {
	Snapshot() (*dataset.World, *dataset.Grouped, error)
}

type Server struct {
	source Source
	dcfg   *config.DataConfig
	logger *storage.Logger
	srv    *http.Server

	// 关闭时通知长连接(/logs)退出
	done     chan struct{}
	doneOnce sync.Once
}

func NewServer(addr string, source Source, dcfg *config.DataConfig, logger *storage.Logger) *Server {
	s := &Server{
		source: source,
		dcfg:   dcfg,
		logger: logger,
		done:   make(chan struct{}),
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.srv.RegisterOnShutdown(func() {
		s.doneOnce.Do(func() { close(s.done) })
	})
	return s
}

// Handler 注册全部路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/options", s.instrument("options", s.handleOptions))
	mux.Handle("GET /api/report", s.instrument("report", s.handleReport))
	mux.Handle("GET /api/world", s.instrument("world", s.handleWorld))
	mux.Handle("GET /api/export", s.instrument("export", s.handleExport))
	mux.HandleFunc("GET /logs", s.handleLogs)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ListenAndServe 阻塞直到服务关闭，正常关闭时返回nil
func (s *Server) ListenAndServe() error {
	s.logger.Info("Web服务已启动: " + s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve 在已有的监听上提供服务
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Web服务已启动: " + ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收新连接，正在推送的日志流随之结束
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// statusRecorder 记录响应状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.RecordRender(endpoint, rec.status, time.Since(start))
		s.logger.Debug(fmt.Sprintf("%s %s -> %d (%v)", r.Method, r.URL.RequestURI(), rec.status, time.Since(start)))
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	_, grouped, err := s.source.Snapshot()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped.Options())
}

type reportResponse struct {
	Report *processor.Report  `json:"report"`
	Charts chart.ReportCharts `json:"charts"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	_, grouped, err := s.source.Snapshot()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	sel, err := ParseSelection(r.URL.Query(), grouped.Options())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	report := processor.NewDataProcessor(grouped, s.dcfg.TopN).Report(sel)
	writeJSON(w, http.StatusOK, reportResponse{Report: report, Charts: chart.ForReport(report)})
}

type worldResponse struct {
	Analysis *processor.WorldAnalysis `json:"analysis"`
	Charts   chart.WorldCharts        `json:"charts"`
}

func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	world, _, err := s.source.Snapshot()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	n := s.dcfg.WorldTopN
	if v := r.URL.Query().Get("top"); v != "" {
		if n, err = strconv.Atoi(v); err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid top %q", v))
			return
		}
	}
	wa := processor.AnalyzeWorld(world, n)
	writeJSON(w, http.StatusOK, worldResponse{Analysis: wa, Charts: chart.ForWorld(wa)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	world, grouped, err := s.source.Snapshot()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	sel, err := ParseSelection(r.URL.Query(), grouped.Options())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	report := processor.NewDataProcessor(grouped, s.dcfg.TopN).Report(sel)
	wa := processor.AnalyzeWorld(world, s.dcfg.WorldTopN)

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="covid_report_%s.xlsx"`, time.Now().Format("20060102_150405")))
	err = datapush.WriteReport(w, report, wa)
	metrics.RecordExport(err)
	if err != nil {
		// 响应头已发送，只能记录日志
		s.logger.Error("导出报表失败: " + err.Error())
	}
}

// handleLogs 以chunked方式持续推送日志，客户端断开或服务关闭后退订
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Transfer-Encoding", "chunked")

	logChan := s.logger.Subscribe()
	defer s.logger.Unsubscribe(logChan)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	for {
		select {
		case msg, ok := <-logChan:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, msg); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		}
	}
}

// ParseSelection 把查询参数转换为筛选条件
// 未传region且all_regions不为false时选择全部地区，未传日期时使用数据的日期范围
func ParseSelection(q url.Values, opts dataset.Options) (processor.Selection, error) {
	sel := processor.Selection{
		Regions:   q["region"],
		Countries: q["country"],
		Start:     opts.MinDate,
		End:       opts.MaxDate,
	}
	allRegions := true
	if v := q.Get("all_regions"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return sel, fmt.Errorf("invalid all_regions %q", v)
		}
		allRegions = b
	}
	if len(sel.Regions) == 0 && allRegions {
		sel.Regions = append([]string(nil), opts.Regions...)
	}

	if v := q.Get("start"); v != "" {
		d, err := utils.ParseDate(v)
		if err != nil {
			return sel, fmt.Errorf("invalid start date: %w", err)
		}
		sel.Start = d
	}
	if v := q.Get("end"); v != "" {
		d, err := utils.ParseDate(v)
		if err != nil {
			return sel, fmt.Errorf("invalid end date: %w", err)
		}
		sel.End = d
	}
	if err := sel.Validate(); err != nil {
		return sel, err
	}
	return sel, nil
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		s.logger.Error(err.Error())
	} else {
		s.logger.Warning(err.Error())
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
