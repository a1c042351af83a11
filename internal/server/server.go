package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/steelworks/opshub/internal/config"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	lotdomain "github.com/steelworks/opshub/internal/lot/domain"
	"github.com/steelworks/opshub/internal/observability"
	obsmiddleware "github.com/steelworks/opshub/internal/observability/logger"
	obsmetrics "github.com/steelworks/opshub/internal/observability/metrics"
	obstracing "github.com/steelworks/opshub/internal/observability/tracing"
	"github.com/steelworks/opshub/internal/pipeline"
	sourcedomain "github.com/steelworks/opshub/internal/sourcehealth/domain"
	"github.com/steelworks/opshub/internal/view"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	lotRepo     lotdomain.Repository
	flagSvc     integritydomain.Service
	healthSvc   sourcedomain.Service
	viewSvc     *view.Service
	pipelineSvc *pipeline.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	LotRepo     lotdomain.Repository
	FlagSvc     integritydomain.Service
	HealthSvc   sourcedomain.Service
	ViewSvc     *view.Service
	PipelineSvc *pipeline.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		lotRepo:     p.LotRepo,
		flagSvc:     p.FlagSvc,
		healthSvc:   p.HealthSvc,
		viewSvc:     p.ViewSvc,
		pipelineSvc: p.PipelineSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Lots --------
	api.GET("/lots", s.ListLots)
	api.GET("/lots/:lot_code", s.GetLotByCode)
	api.GET("/lots/:lot_code/status", s.GetLotStatus)

	// -------- Integrity Flags --------
	api.GET("/flags", s.ListFlags)
	api.GET("/flags/summary", s.GetFlagSummary)
	api.POST("/flags/:id/resolve", s.ResolveFlag)

	// -------- Dashboard --------
	api.GET("/dashboard/line-health", s.GetLineHealth)
	api.GET("/dashboard/defect-trends", s.GetDefectTrends)
	api.GET("/dashboard/integrity", s.GetIntegrityReport)
	api.GET("/dashboard/source-health", s.GetSourceHealth)

	// -------- Refresh --------
	api.POST("/refresh", s.TriggerRefresh)
}
