package models

// Requests for engine HTTP endpoints. Defined in domain for consistency and reuse.

type ArbitrageScanRequest struct {
	Symbol          string  `json:"symbol" validate:"required"`
	FairProbability float64 `json:"fairProbability" validate:"gt=0,lt=1"`
	MinEdgeBps      float64 `json:"minEdgeBps"`
	Quotes          []Quote `json:"quotes" validate:"required,dive"`
}

type OpenTradeRequest struct {
	Symbol            string  `json:"symbol" validate:"required"`
	Venue             string  `json:"venue" validate:"required"`
	MarketID          string  `json:"marketId" validate:"required"`
	Side              string  `json:"side" default:"BUY" validate:"oneof=BUY SELL"`
	MarketProbability float64 `json:"marketProbability" validate:"gte=0,lte=1"`
	FairProbability   float64 `json:"fairProbability" validate:"gte=0,lte=1"`
	BankrollUsd       float64 `json:"bankrollUsd" validate:"required"`
	MaxRiskPct        float64 `json:"maxRiskPct" validate:"required"`
	FeeBps            float64 `json:"feeBps" validate:"gte=0"`
	Notes             string  `json:"notes"`
}

type CloseTradeRequest struct {
	ExitProbability float64 `json:"exitProbability" validate:"gte=0,lte=1"`
}

type DashboardRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}
