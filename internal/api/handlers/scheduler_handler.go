package handlers

import (
	"net/http"

	"github.com/greenworld/eco-rewards-service/internal/scheduler"
)

// SchedulerHandler exposes the administrative job triggers. Both triggers
// share the run-marker idempotency of the automatic schedule, so calling
// them repeatedly is safe.
type SchedulerHandler struct {
	sched *scheduler.Scheduler
}

func NewSchedulerHandler(sched *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{sched: sched}
}

// RunReports handles POST /admin/scheduler/reports/run.
func (h *SchedulerHandler) RunReports(w http.ResponseWriter, r *http.Request) {
	result, err := h.sched.RunMonthlyReports(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "report_job_failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RunReset handles POST /admin/scheduler/reset/run.
func (h *SchedulerHandler) RunReset(w http.ResponseWriter, r *http.Request) {
	result, err := h.sched.RunMonthlyReset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reset_job_failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Status handles GET /admin/scheduler/status.
func (h *SchedulerHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.sched.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status_failed")
		return
	}
	writeJSON(w, http.StatusOK, status)
}
