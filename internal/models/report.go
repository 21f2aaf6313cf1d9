package models

import "time"

// MonthFormat is the layout for report month keys, e.g. "2026-08".
const MonthFormat = "2006-01"

// MonthlyReport snapshots one member's ledger aggregates for one month.
// Created at most once per (MemberID, ReportMonth); never updated.
type MonthlyReport struct {
	ID             int64     `json:"id"`
	MemberID       int64     `json:"member_id"`
	ReportMonth    string    `json:"report_month"`
	EarnedSeeds    int64     `json:"earned_seeds"`
	UsedSeeds      int64     `json:"used_seeds"`
	ConvertedSeeds int64     `json:"converted_seeds"`
	BalanceAtGen   int64     `json:"balance_at_generation"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// SchedulerRun marks a completed (or claimed) execution of a periodic job
// for one period. The (JobName, Period) pair is unique, which is what makes
// re-running a job within the same period a no-op across restarts.
type SchedulerRun struct {
	JobName string    `json:"job_name"`
	Period  string    `json:"period"`
	RanAt   time.Time `json:"ran_at"`
}
