package server

import (
	"context"
	"expvar"
	"net/http"
	"strconv"
	"time"

	"github.com/betbot/finbot/internal/domain"
	"github.com/betbot/finbot/internal/portfolio"
	"github.com/gin-gonic/gin"
)

// ValuesSource provides the recorded portfolio value history.
type ValuesSource interface {
	ListValues(ctx context.Context, accountID string, limit int) ([]domain.PortfolioValue, error)
}

// ReportSource exposes the outcome of the most recent sync cycle.
type ReportSource interface {
	LastReport() *portfolio.SyncReport
}

type Config struct {
	Addr      string
	AccountID string
}

// Server is the read-only control plane: health, value history and the
// latest reconciliation report. It never mutates trading state.
type Server struct {
	cfg     Config
	values  ValuesSource
	reports ReportSource
	httpSrv *http.Server
}

func New(cfg Config, values ValuesSource, reports ReportSource) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8082"
	}
	return &Server{cfg: cfg, values: values, reports: reports}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/debug/vars", gin.WrapH(expvar.Handler()))

	api := r.Group("/api")
	api.GET("/portfolio/values", s.handlePortfolioValues)
	api.GET("/sync/latest", s.handleLatestSync)

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{Addr: s.cfg.Addr, Handler: s.Router()}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handlePortfolioValues(c *gin.Context) {
	limit := 200
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	accountID := c.Query("account_id")
	if accountID == "" {
		accountID = s.cfg.AccountID
	}

	values, err := s.values.ListValues(c.Request.Context(), accountID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type valueJSON struct {
		AccountID string `json:"account_id"`
		USDValue  string `json:"usd_value"`
		TS        string `json:"ts"`
	}
	out := make([]valueJSON, 0, len(values))
	for _, v := range values {
		out = append(out, valueJSON{
			AccountID: v.AccountID,
			USDValue:  v.USDValue.String(),
			TS:        v.Timestamp.Format(time.RFC3339Nano),
		})
	}
	c.JSON(http.StatusOK, gin.H{"values": out})
}

func (s *Server) handleLatestSync(c *gin.Context) {
	var report *portfolio.SyncReport
	if s.reports != nil {
		report = s.reports.LastReport()
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync has completed yet"})
		return
	}

	type actionJSON struct {
		Symbol string `json:"symbol"`
		Kind   string `json:"kind"`
		Reason string `json:"reason,omitempty"`
		Error  string `json:"error,omitempty"`
	}
	toJSON := func(actions []portfolio.Action) []actionJSON {
		out := make([]actionJSON, 0, len(actions))
		for _, a := range actions {
			j := actionJSON{Symbol: a.Symbol, Kind: string(a.Kind), Reason: a.Reason}
			if a.Err != nil {
				j.Error = a.Err.Error()
			}
			out = append(out, j)
		}
		return out
	}

	c.JSON(http.StatusOK, gin.H{
		"started_at":          report.StartedAt,
		"finished_at":         report.FinishedAt,
		"entries":             toJSON(report.Entries),
		"exits":               toJSON(report.Exits),
		"mutations":           report.Mutations(),
		"failures":            len(report.Failures()),
		"portfolio_value_usd": report.PortfolioValueUSD.String(),
		"value_recorded":      report.ValueRecorded,
	})
}
