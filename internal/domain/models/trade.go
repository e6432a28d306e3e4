package models

import "time"

// Side is the direction of a paper trade on a binary market.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeStatus tracks the trade lifecycle. A trade is created open and makes
// exactly one terminal transition to closed.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "open"
	StatusClosed TradeStatus = "closed"
)

// Trade is a simulated position in probability space. Owned exclusively by
// the trade ledger; ExitProbability, Pnl and ClosedAt are set atomically on
// close and never revisited.
type Trade struct {
	ID               string      `json:"id"`
	Symbol           string      `json:"symbol"`
	Venue            string      `json:"venue"`
	MarketID         string      `json:"marketId"`
	Side             Side        `json:"side"`
	Status           TradeStatus `json:"status"`
	EntryProbability float64     `json:"entryProbability"`
	ExitProbability  *float64    `json:"exitProbability,omitempty"`
	Size             float64     `json:"size"`
	BankrollUsd      float64     `json:"bankrollUsd"`
	MaxRiskPct       float64     `json:"maxRiskPct"`
	FeeBps           float64     `json:"feeBps"`
	Pnl              *float64    `json:"pnl,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	ExecutedAt       time.Time   `json:"executedAt"`
	ClosedAt         *time.Time  `json:"closedAt,omitempty"`
}

// EquityPoint is one step of the cumulative-PnL curve.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// DashboardSummary is derived from the full trade set on every read.
type DashboardSummary struct {
	TotalTrades  int     `json:"totalTrades"`
	ClosedTrades int     `json:"closedTrades"`
	OpenTrades   int     `json:"openTrades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"winRate"`
	NetPnl       float64 `json:"netPnl"`
	RoiPct       float64 `json:"roiPct"`
}

// DashboardView is the composed read model served to the UI.
type DashboardView struct {
	Summary       *DashboardSummary `json:"summary"`
	EquityCurve   []EquityPoint     `json:"equityCurve"`
	Signals       []Signal          `json:"signals"`
	Opportunities []Opportunity     `json:"opportunities"`
	RecentTrades  []Trade           `json:"recentTrades"`
}
