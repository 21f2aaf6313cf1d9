package models

import "time"

// MerchantCategory enumerates the certified eco-merchant categories.
type MerchantCategory string

const (
	CategoryEcoFood        MerchantCategory = "ECO_FOOD"
	CategoryEVCharging     MerchantCategory = "EV_CHARGING"
	CategoryRecyclingStore MerchantCategory = "RECYCLING_STORE"
	CategoryGreenBeauty    MerchantCategory = "GREEN_BEAUTY"
	CategoryEcoShopping    MerchantCategory = "ECO_SHOPPING"
	CategoryOrganicCafe    MerchantCategory = "ORGANIC_CAFE"
)

// AllMerchantCategories lists every known category in a stable order.
var AllMerchantCategories = []MerchantCategory{
	CategoryEcoFood,
	CategoryEVCharging,
	CategoryRecyclingStore,
	CategoryGreenBeauty,
	CategoryEcoShopping,
	CategoryOrganicCafe,
}

var merchantCategoryNames = map[MerchantCategory]string{
	CategoryEcoFood:        "Eco Food & Grocery",
	CategoryEVCharging:     "EV Charging",
	CategoryRecyclingStore: "Recycling / Zero Waste",
	CategoryGreenBeauty:    "Green Beauty",
	CategoryEcoShopping:    "Eco Shopping",
	CategoryOrganicCafe:    "Organic Cafe",
}

// Reward rates in basis points of the transaction amount (100 = 1.0%).
var defaultRewardBasisPoints = map[MerchantCategory]int64{
	CategoryEcoFood:        100,
	CategoryEVCharging:     200,
	CategoryRecyclingStore: 150,
	CategoryGreenBeauty:    100,
	CategoryEcoShopping:    50,
	CategoryOrganicCafe:    150,
}

// DisplayName returns the human-readable label for the category.
func (c MerchantCategory) DisplayName() string {
	if name, ok := merchantCategoryNames[c]; ok {
		return name
	}
	return string(c)
}

// Valid reports whether c is a known category.
func (c MerchantCategory) Valid() bool {
	_, ok := merchantCategoryNames[c]
	return ok
}

// DefaultRewardRates returns a copy of the built-in per-category reward
// rates in basis points. Callers may override entries from configuration.
func DefaultRewardRates() map[MerchantCategory]int64 {
	rates := make(map[MerchantCategory]int64, len(defaultRewardBasisPoints))
	for k, v := range defaultRewardBasisPoints {
		rates[k] = v
	}
	return rates
}

// RewardSeeds computes the seeds earned for a transaction amount at the
// given basis-point rate, rounded down to the nearest whole seed.
func RewardSeeds(amount, basisPoints int64) int64 {
	if amount <= 0 || basisPoints <= 0 {
		return 0
	}
	return amount * basisPoints / 10000
}

// EcoMerchant is a registered environmentally-certified merchant.
// Maintained by an administrative collaborator; read-only to the pipeline.
type EcoMerchant struct {
	ID                int64
	BusinessNumber    string
	Name              string
	Category          MerchantCategory
	Description       string
	Address           string
	Latitude          float64
	Longitude         float64
	PhoneNumber       string
	EcoCertifications string
	EcoPractices      string
	IsActive          bool
	IsVerified        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EcoMerchantTransaction records a matched card transaction at an
// eco-merchant, kept for history and stats queries.
type EcoMerchantTransaction struct {
	ID             int64
	MemberID       int64
	MerchantID     int64
	TransactionRef string
	MerchantName   string
	BusinessNumber string
	Amount         int64
	EarnedSeeds    int64
	BenefitRate    float64
	TransactionAt  time.Time
}

// EcoMerchantStats aggregates a member's eco-merchant activity.
type EcoMerchantStats struct {
	TotalTransactions  int64 `json:"total_transactions"`
	TotalAmount        int64 `json:"total_amount"`
	TotalEarnedSeeds   int64 `json:"total_earned_seeds"`
	DistinctMerchants  int64 `json:"distinct_merchants"`
	CurrentMonthSeeds  int64 `json:"current_month_seeds"`
	CurrentMonthAmount int64 `json:"current_month_amount"`
}
