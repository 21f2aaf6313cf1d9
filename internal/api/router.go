package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenworld/eco-rewards-service/internal/api/handlers"
)

// Handlers bundles the constructed endpoint handlers for routing.
type Handlers struct {
	Transactions *handlers.TransactionHandler
	Merchants    *handlers.MerchantHandler
	Seeds        *handlers.SeedHandler
	Scheduler    *handlers.SchedulerHandler
}

// NewRouter builds the HTTP router for the eco-rewards service.
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	// Transaction-recording collaborator surface; reward processing is async.
	r.Post("/transactions", h.Transactions.Create)

	r.Route("/merchants", func(r chi.Router) {
		r.Get("/nearby", h.Merchants.Nearby)
		r.Get("/categories", h.Merchants.Categories)
	})

	r.Route("/members/{memberID}", func(r chi.Router) {
		r.Get("/seeds", h.Seeds.Summary)
		r.Get("/seeds/transactions", h.Seeds.Transactions)
		r.Get("/seeds/monthly", h.Seeds.MonthlyEarned)
		r.Post("/seeds/use", h.Seeds.Use)
		r.Post("/seeds/convert", h.Seeds.Convert)
		r.Get("/eco-merchants", h.Merchants.History)
		r.Get("/eco-merchants/stats", h.Merchants.Stats)
	})

	r.Get("/teams/{teamID}/seeds/monthly", h.Seeds.TeamMonthly)

	r.Route("/admin/scheduler", func(r chi.Router) {
		r.Post("/reports/run", h.Scheduler.RunReports)
		r.Post("/reset/run", h.Scheduler.RunReset)
		r.Get("/status", h.Scheduler.Status)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
