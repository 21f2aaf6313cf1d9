package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/greenworld/eco-rewards-service/internal/api/handlers"
	"github.com/greenworld/eco-rewards-service/internal/config"
	"github.com/greenworld/eco-rewards-service/internal/events"
	"github.com/greenworld/eco-rewards-service/internal/models"
	"github.com/greenworld/eco-rewards-service/internal/repository"
	"github.com/greenworld/eco-rewards-service/internal/scheduler"
	"github.com/greenworld/eco-rewards-service/internal/service"
)

type fixture struct {
	router http.Handler
	mem    *repository.Memory
	seeds  *service.SeedService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := repository.NewMemory()
	rates := models.DefaultRewardRates()

	seeds := service.NewSeedService(mem, mem, logger)
	matching := service.NewMatchingService(mem, mem, seeds, rates, logger)
	location := service.NewLocationService(mem)
	reports := service.NewReportService(mem, seeds, logger)
	sched := scheduler.New(config.SchedulerConfig{ReportCron: "30 0 1 * *", ResetCron: "0 0 1 * *"},
		mem, mem, reports, logger)

	bus := events.NewBus(logger, 1, 8)
	bus.Subscribe(matching.HandleTransactionCreated)
	bus.Start(context.Background())
	t.Cleanup(bus.Close)

	router := NewRouter(Handlers{
		Transactions: handlers.NewTransactionHandler(bus, logger),
		Merchants:    handlers.NewMerchantHandler(location, matching, rates),
		Seeds:        handlers.NewSeedHandler(seeds),
		Scheduler:    handlers.NewSchedulerHandler(sched),
	})
	return &fixture{router: router, mem: mem, seeds: seeds}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateTransaction(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/transactions",
		`{"transaction_id":"tx-1","member_id":1,"merchant_name":"Green Table","amount":5000,"transaction_at":"2026-08-15T12:00:00Z"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name string
		body string
	}{
		{"missing transaction id", `{"member_id":1,"amount":100}`},
		{"missing member id", `{"transaction_id":"tx-2","amount":100}`},
		{"non-positive amount", `{"transaction_id":"tx-3","member_id":1,"amount":0}`},
		{"bad timestamp", `{"transaction_id":"tx-4","member_id":1,"amount":100,"transaction_at":"yesterday"}`},
		{"malformed body", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/transactions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSeedEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.seeds.Earn(ctx, 1, 500, models.PointCategoryEcoChallenge, "challenge", ""); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	rec := f.do(t, http.MethodGet, "/members/1/seeds", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %s", rec.Code, rec.Body.String())
	}
	var summary models.SeedSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Balance != 500 {
		t.Errorf("balance = %d, want 500", summary.Balance)
	}

	rec = f.do(t, http.MethodPost, "/members/1/seeds/use", `{"amount":200}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("use status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/members/1/seeds/use", `{"amount":10000}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("overdraw status = %d, want 409", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/members/1/seeds/convert", `{"amount":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero-amount status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/members/abc/seeds/use", `{"amount":10}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad member id status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/members/1/seeds/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("transactions status = %d", rec.Code)
	}
}

func TestMerchantEndpoints(t *testing.T) {
	f := newFixture(t)

	f.mem.AddMerchant(models.EcoMerchant{
		Name: "Haru Organic Cafe", Category: models.CategoryOrganicCafe,
		Latitude: 37.5700, Longitude: 126.9780,
		IsActive: true, IsVerified: true,
	})

	rec := f.do(t, http.MethodGet, "/merchants/nearby?lat=37.5665&lng=126.9780", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("nearby status = %d: %s", rec.Code, rec.Body.String())
	}
	var nearby struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &nearby); err != nil {
		t.Fatalf("decode nearby: %v", err)
	}
	if nearby.Count != 1 {
		t.Errorf("count = %d, want 1", nearby.Count)
	}

	rec = f.do(t, http.MethodGet, "/merchants/nearby?lat=55&lng=126.9780", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-bounds status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/merchants/nearby?lng=126.9780", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing lat status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/merchants/nearby?lat=37.5665&lng=126.9780&category=BAD", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/merchants/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("categories status = %d", rec.Code)
	}
	var categories struct {
		Categories []struct {
			Category string `json:"category"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(categories.Categories) != len(models.AllMerchantCategories) {
		t.Errorf("got %d categories, want %d", len(categories.Categories), len(models.AllMerchantCategories))
	}
}

func TestSchedulerEndpoints(t *testing.T) {
	f := newFixture(t)
	f.mem.SetProfile(models.MemberProfile{MemberID: 1, IsActive: true})

	rec := f.do(t, http.MethodPost, "/admin/scheduler/reports/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reports run status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/admin/scheduler/reset/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset run status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/admin/scheduler/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}
