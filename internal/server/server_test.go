package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/steelworks/opshub/internal/clock"
	"github.com/steelworks/opshub/internal/config"
	"github.com/steelworks/opshub/internal/conflict"
	"github.com/steelworks/opshub/internal/integrate"
	integritydomain "github.com/steelworks/opshub/internal/integrity/domain"
	lotdomain "github.com/steelworks/opshub/internal/lot/domain"
	recorddomain "github.com/steelworks/opshub/internal/record/domain"
	sourcedomain "github.com/steelworks/opshub/internal/sourcehealth/domain"
	"github.com/steelworks/opshub/internal/view"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeLotRepo struct {
	lots []lotdomain.Lot
}

func (f *fakeLotRepo) Insert(context.Context, *gorm.DB, *lotdomain.Lot) error        { return nil }
func (f *fakeLotRepo) BatchInsert(context.Context, *gorm.DB, []*lotdomain.Lot) error { return nil }
func (f *fakeLotRepo) DeleteAll(context.Context, *gorm.DB) error                     { return nil }

func (f *fakeLotRepo) List(context.Context, *gorm.DB) ([]lotdomain.Lot, error) {
	return f.lots, nil
}

func (f *fakeLotRepo) FindByCode(_ context.Context, _ *gorm.DB, lotCode string) ([]lotdomain.Lot, error) {
	var matches []lotdomain.Lot
	for _, lot := range f.lots {
		if lot.LotCode == lotCode {
			matches = append(matches, lot)
		}
	}
	return matches, nil
}

func (f *fakeLotRepo) FindByKey(context.Context, *gorm.DB, string, string) (*lotdomain.Lot, error) {
	return nil, nil
}

type fakeFlagService struct {
	flags      []integritydomain.Flag
	resolveErr error
}

func (f *fakeFlagService) List(context.Context, integritydomain.ListFilter) ([]integritydomain.Flag, error) {
	return f.flags, nil
}

func (f *fakeFlagService) Resolve(context.Context, string) (*integritydomain.Flag, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &integritydomain.Flag{IsResolved: true}, nil
}

func (f *fakeFlagService) Summary(context.Context) (*integritydomain.SummaryResponse, error) {
	return &integritydomain.SummaryResponse{Total: int64(len(f.flags))}, nil
}

type fakeHealthService struct{}

func (fakeHealthService) MarkHealthy(context.Context, recorddomain.Source, int) error { return nil }
func (fakeHealthService) MarkError(context.Context, recorddomain.Source, error) error { return nil }
func (fakeHealthService) SweepStale(context.Context, time.Duration) (int, error)      { return 0, nil }

func (fakeHealthService) List(context.Context) ([]sourcedomain.DataSource, error) {
	return []sourcedomain.DataSource{{SourceName: "production", Status: sourcedomain.StatusHealthy}}, nil
}

func newTestServer(t *testing.T, lots *fakeLotRepo, flags *fakeFlagService) (*Server, *view.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	viewSvc := view.New(zap.NewNop())
	srv := NewServer(ServerParams{
		Gin:       engine,
		Cfg:       config.Config{Environment: "test"},
		LotRepo:   lots,
		FlagSvc:   flags,
		HealthSvc: fakeHealthService{},
		ViewSvc:   viewSvc,
	})
	return srv, viewSvc
}

func publishPendingLot(t *testing.T, viewSvc *view.Service) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC))

	res := integrate.New(node, clk).Integrate([]recorddomain.Row{{
		"lot_code":           "7",
		"production_date":    "2024-02-01",
		"production_line_id": "LINE-A",
		"shift":              "Day",
		"units_planned":      "100",
		"units_actual":       "97",
		"downtime_minutes":   "5",
	}}, nil, nil)
	flags := conflict.New(clk).Resolve(res)
	for _, key := range res.Order {
		rec := res.Records[key]
		rec.Lot.Status = view.LotStatus(rec)
	}

	viewSvc.Publish(&view.Snapshot{
		RunID:       "test-run",
		GeneratedAt: clk.Now(),
		Records:     res.Records,
		Order:       res.Order,
		Flags:       flags,
	})
}

func doRequest(srv *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestGetLotStatus(t *testing.T) {
	srv, viewSvc := newTestServer(t, &fakeLotRepo{}, &fakeFlagService{})
	publishPendingLot(t, viewSvc)

	rec := doRequest(srv, http.MethodGet, "/api/lots/0007/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(srv, http.MethodGet, "/api/lots/9999/status")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown lot, got %d", rec.Code)
	}
}

func TestDashboardBeforeFirstRefresh(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLotRepo{}, &fakeFlagService{})

	for _, path := range []string{
		"/api/dashboard/line-health",
		"/api/dashboard/defect-trends",
		"/api/dashboard/integrity",
		"/api/lots/7/status",
	} {
		rec := doRequest(srv, http.MethodGet, path)
		if path == "/api/lots/7/status" {
			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("%s: expected 503 before first publish, got %d", path, rec.Code)
			}
			continue
		}
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503 before first publish, got %d", path, rec.Code)
		}
	}
}

func TestGetLotByCode(t *testing.T) {
	lots := &fakeLotRepo{lots: []lotdomain.Lot{
		{LotCode: "7", ProductionDate: "2024-02-01", Status: lotdomain.StatusPendingInspection},
	}}
	srv, _ := newTestServer(t, lots, &fakeFlagService{})

	rec := doRequest(srv, http.MethodGet, "/api/lots/7")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(srv, http.MethodGet, "/api/lots/404")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListFlagsRejectsBadSeverity(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLotRepo{}, &fakeFlagService{})

	rec := doRequest(srv, http.MethodGet, "/api/flags?severity=Catastrophic")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(srv, http.MethodGet, "/api/flags?severity=Critical&resolved=false")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestResolveFlagConflict(t *testing.T) {
	flags := &fakeFlagService{resolveErr: integritydomain.ErrAlreadyResolved}
	srv, _ := newTestServer(t, &fakeLotRepo{}, flags)

	rec := doRequest(srv, http.MethodPost, "/api/flags/123/resolve")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for already resolved flag, got %d", rec.Code)
	}
}

func TestSourceHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeLotRepo{}, &fakeFlagService{})

	rec := doRequest(srv, http.MethodGet, "/api/dashboard/source-health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
