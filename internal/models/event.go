package models

import "time"

// TransactionEvent is published once per recorded card transaction and
// consumed asynchronously by the merchant matcher. Immutable.
//
// Latitude/Longitude are the card terminal's location when the upstream
// provider reports one; nil otherwise.
type TransactionEvent struct {
	TransactionID        string    `json:"transaction_id"`
	MemberID             int64     `json:"member_id"`
	MerchantName         string    `json:"merchant_name"`
	BusinessNumber       string    `json:"business_number,omitempty"`
	Amount               int64     `json:"amount"`
	TransactionAt        time.Time `json:"transaction_at"`
	Category             string    `json:"category"`
	MerchantCategoryHint string    `json:"merchant_category,omitempty"`
	Latitude             *float64  `json:"latitude,omitempty"`
	Longitude            *float64  `json:"longitude,omitempty"`
}

// MatchResult is what merchant matching reports back to the event handler
// for logging and telemetry. It feeds no further pipeline stage.
type MatchResult struct {
	IsEcoMerchant   bool   `json:"is_eco_merchant"`
	MerchantName    string `json:"merchant_name,omitempty"`
	AdditionalSeeds int64  `json:"additional_seeds"`
}
