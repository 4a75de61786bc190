// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Kong-F/backtest/internal/api/job"
	"github.com/Kong-F/backtest/internal/api/response"
	"github.com/Kong-F/backtest/internal/collector"
	"github.com/Kong-F/backtest/internal/core"
	"github.com/Kong-F/backtest/internal/metrics"
	"github.com/Kong-F/backtest/internal/report"
	"github.com/Kong-F/backtest/internal/sweep"
)

const (
	backtestTimeout  = 5 * time.Minute
	jobPurgeInterval = time.Minute

	signalStrategy = "ema_channel"
)

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	JobTTL      time.Duration
	MaxJobs     int
	MetricsPath string

	// Defaults applied to requests that omit them
	DefaultPeriod     int
	DefaultCapital    float64
	DefaultCommission float64
	DefaultInterval   string
	DefaultDays       int
}

// Server exposes backtests over HTTP. Backtests run as async jobs:
// POST returns a job id immediately and GET polls for the result.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	cfg        Config
	log        *zap.Logger

	provider collector.HistoryProvider
	jobs     *job.Store
	registry *metrics.Registry
	reports  *report.Writer // nil disables archiving

	stop     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, provider collector.HistoryProvider, reports *report.Writer, registry *metrics.Registry, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		mux:      mux,
		cfg:      cfg,
		log:      log,
		provider: provider,
		jobs:     job.NewStore(cfg.MaxJobs, cfg.JobTTL),
		registry: registry,
		reports:  reports,
		stop:     make(chan struct{}),
	}

	s.setupRoutes()

	var handler http.Handler = mux
	if registry != nil {
		handler = registry.Instrument(mux)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/v1/backtest", s.handleBacktest)
	s.mux.HandleFunc("/api/v1/backtest/", s.handleBacktestStatus)
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.registry != nil {
		path := s.cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle(path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	go s.purgeLoop(jobPurgeInterval)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// purgeLoop evicts finished jobs past their TTL until Shutdown.
func (s *Server) purgeLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.jobs.Purge(); n > 0 {
				s.log.Debug("purged expired jobs", zap.Int("count", n))
				if s.registry != nil {
					s.registry.SetJobsActive(s.jobs.ActiveCount())
				}
			}
		}
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	s.stopOnce.Do(func() { close(s.stop) })
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the server's root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// BacktestRequest is the request body for starting a backtest.
type BacktestRequest struct {
	Symbol         string  `json:"symbol"`
	Interval       string  `json:"interval,omitempty"`
	Days           int     `json:"days,omitempty"`
	Period         int     `json:"period,omitempty"`
	Periods        []int   `json:"periods,omitempty"`
	InitialCapital float64 `json:"initial_capital,omitempty"`
	CommissionRate float64 `json:"commission_rate,omitempty"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		response.Error(w, http.StatusMethodNotAllowed,
			core.WrapError(core.ErrInvalidInput, fmt.Errorf("method %s not allowed", r.Method)))
		return
	}

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, err))
		return
	}

	if req.Symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, fmt.Errorf("symbol is required")))
		return
	}
	s.applyDefaults(&req)

	if _, err := sweep.NewRunner(req.InitialCapital, req.CommissionRate, zap.NewNop()); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	j := s.jobs.Create("backtest")
	jobID := j.ID
	status := j.Status

	go s.runBacktest(jobID, req)

	if s.registry != nil {
		s.registry.SetJobsActive(s.jobs.ActiveCount())
	}

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

func (s *Server) applyDefaults(req *BacktestRequest) {
	if req.Interval == "" {
		req.Interval = s.cfg.DefaultInterval
	}
	if req.Days <= 0 {
		req.Days = s.cfg.DefaultDays
	}
	if req.Period <= 0 {
		req.Period = s.cfg.DefaultPeriod
	}
	if req.InitialCapital <= 0 {
		req.InitialCapital = s.cfg.DefaultCapital
	}
	if req.CommissionRate <= 0 {
		req.CommissionRate = s.cfg.DefaultCommission
	}
}

// runBacktest fetches data, executes the run and records the outcome
// on the job.
func (s *Server) runBacktest(jobID string, req BacktestRequest) {
	s.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()

	start := time.Now()
	doc, err := s.execute(ctx, req)
	duration := time.Since(start).Seconds()

	if err != nil {
		s.log.Warn("backtest job failed",
			zap.String("job_id", jobID),
			zap.String("symbol", req.Symbol),
			zap.Error(err))
		if s.registry != nil {
			s.registry.RecordBacktest("error", duration)
		}
		s.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = core.WrapError(core.ErrSimulationFailed, err)
		})
		return
	}

	if s.registry != nil {
		s.registry.RecordBacktest("success", duration)
		s.registry.SetJobsActive(s.jobs.ActiveCount())
	}
	s.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = doc
	})
}

func (s *Server) execute(ctx context.Context, req BacktestRequest) (*report.Document, error) {
	end := time.Now()
	raw, err := s.provider.FetchHistory(req.Symbol, end.AddDate(0, 0, -req.Days), end, req.Interval)
	if err != nil {
		return nil, err
	}
	bars, err := collector.Normalize(raw)
	if err != nil {
		return nil, err
	}

	runner, err := sweep.NewRunner(req.InitialCapital, req.CommissionRate, s.log)
	if err != nil {
		return nil, err
	}

	periods := req.Periods
	if len(periods) == 0 {
		periods = []int{req.Period}
	}
	if s.registry != nil {
		s.registry.RecordSweep(len(periods))
	}

	runs, err := runner.Run(ctx, bars, periods)
	if err != nil {
		return nil, err
	}
	if s.registry != nil {
		for _, run := range runs {
			s.registry.RecordSignals(signalStrategy, "buy", run.Summary.BuySignals)
			s.registry.RecordSignals(signalStrategy, "sell", run.Summary.SellSignals)
			var buys, sells int
			for _, t := range run.Trades {
				switch t.Side {
				case core.SideBuy:
					buys++
				case core.SideSell:
					sells++
				}
			}
			s.registry.RecordTrades(string(core.SideBuy), buys)
			s.registry.RecordTrades(string(core.SideSell), sells)
		}
	}

	doc := report.New(req.Symbol, req.Interval, req.InitialCapital, req.CommissionRate, runs)
	if s.reports != nil {
		if _, err := s.reports.Save(ctx, doc); err != nil {
			s.log.Warn("report archive failed", zap.String("report_id", doc.ID), zap.Error(err))
		} else if s.registry != nil {
			s.registry.RecordReportSaved()
		}
	}
	return doc, nil
}

func (s *Server) handleBacktestStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		response.Error(w, http.StatusMethodNotAllowed,
			core.WrapError(core.ErrInvalidInput, fmt.Errorf("method %s not allowed", r.Method)))
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/backtest/")
	if jobID == "" || strings.Contains(jobID, "/") {
		response.Error(w, http.StatusNotFound, core.ErrJobNotFound)
		return
	}

	j, err := s.jobs.Get(jobID)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = response.Detail(j.Error)
	}

	response.JSON(w, http.StatusOK, resp)
}
