package models

import "time"

// PointTransactionType discriminates ledger entry semantics.
type PointTransactionType string

const (
	PointEarn    PointTransactionType = "EARN"
	PointUse     PointTransactionType = "USE"
	PointConvert PointTransactionType = "CONVERT"
)

// PointCategory labels the activity a ledger entry originated from.
type PointCategory string

const (
	PointCategoryDailyQuiz         PointCategory = "DAILY_QUIZ"
	PointCategoryWalking           PointCategory = "WALKING"
	PointCategoryEcoChallenge      PointCategory = "ECO_CHALLENGE"
	PointCategoryEcoMerchant       PointCategory = "ECO_MERCHANT"
	PointCategoryMoneyConversion   PointCategory = "MONEY_CONVERSION"
	PointCategoryEnvironmentDonate PointCategory = "ENVIRONMENT_DONATION"
)

var pointCategoryNames = map[PointCategory]string{
	PointCategoryDailyQuiz:         "Daily Quiz",
	PointCategoryWalking:           "Walking",
	PointCategoryEcoChallenge:      "Eco Challenge",
	PointCategoryEcoMerchant:       "Eco Merchant",
	PointCategoryMoneyConversion:   "Money Conversion",
	PointCategoryEnvironmentDonate: "Environment Donation",
}

// DisplayName returns the human-readable label for the category.
func (c PointCategory) DisplayName() string {
	if name, ok := pointCategoryNames[c]; ok {
		return name
	}
	return string(c)
}

// PointTransaction is one append-only ledger entry. PointsAmount is signed:
// positive for EARN, negative for USE and CONVERT, so a member's balance is
// the plain sum over their entries. Rows are never mutated or deleted.
//
// TransactionRef carries the originating card-transaction ID for entries
// produced by merchant matching; at most one row may exist per
// (MemberID, TransactionRef) pair.
type PointTransaction struct {
	ID             int64                `json:"id"`
	MemberID       int64                `json:"member_id"`
	Type           PointTransactionType `json:"type"`
	Category       PointCategory        `json:"category"`
	Description    string               `json:"description"`
	PointsAmount   int64                `json:"points_amount"`
	BalanceAfter   int64                `json:"balance_after"`
	TransactionRef string               `json:"transaction_ref,omitempty"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// MemberProfile holds derived per-member counters. Monthly fields are reset
// at each month boundary and are always re-derivable from the ledger; they
// are never authoritative.
type MemberProfile struct {
	MemberID               int64
	TeamID                 int64 // 0 when the member belongs to no team
	CurrentMonthPoints     int64
	CurrentMonthActivities int64
	IsActive               bool
	UpdatedAt              time.Time
}

// SeedSummary is the aggregate view of a member's seed holdings. Used and
// converted totals are reported as positive magnitudes.
type SeedSummary struct {
	MemberID       int64 `json:"member_id"`
	TotalEarned    int64 `json:"total_earned"`
	TotalUsed      int64 `json:"total_used"`
	TotalConverted int64 `json:"total_converted"`
	Balance        int64 `json:"balance"`
}
