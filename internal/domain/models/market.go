package models

// Quote is a venue's current price for a binary market, expressed as the
// implied probability of "yes" plus the venue fee. Caller-supplied, ephemeral.
type Quote struct {
	Venue          string  `json:"venue" validate:"required"`
	MarketID       string  `json:"marketId" validate:"required"`
	ProbabilityYes float64 `json:"probabilityYes" validate:"gte=0,lte=1"`
	FeeBps         float64 `json:"feeBps" validate:"gte=0"`
}

// Opportunity is a fee-adjusted mispricing derived from a Quote against a
// fair-probability estimate. Always recomputed at scan time, never cached.
type Opportunity struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Venue             string  `json:"venue"`
	MarketID          string  `json:"marketId"`
	MarketProbability float64 `json:"marketProbability"`
	FairProbability   float64 `json:"fairProbability"`
	EdgeBps           float64 `json:"edgeBps"`
	ExpectedRoiPct    float64 `json:"expectedRoiPct"`
}
