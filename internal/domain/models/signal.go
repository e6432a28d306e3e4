package models

import "time"

// Direction is the directional read of a flow signal.
type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
)

// Signal is a directional read over the retained unusual-activity window
// for one symbol. Recomputed fresh on every scan cycle, never accumulated.
type Signal struct {
	Symbol       string    `json:"symbol"`
	Direction    Direction `json:"direction"`
	Confidence   float64   `json:"confidence"`
	Timeframe    string    `json:"timeframe"`
	Rationale    string    `json:"rationale"`
	TotalPremium float64   `json:"totalPremium"`
	CallPutRatio float64   `json:"callPutRatio"`
	GeneratedAt  time.Time `json:"generatedAt"`
}
