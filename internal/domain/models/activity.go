package models

import "time"

// OptionType discriminates call and put records.
type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// Classification thresholds for unusual options activity.
const (
	UnusualVolumeOIRatio = 5.0
	UnusualPremiumUSD    = 100_000.0
)

// OptionsActivity is a single raw options-flow record. Immutable once ingested.
type OptionsActivity struct {
	Symbol       string     `json:"symbol"`
	OptionType   OptionType `json:"optionType"`
	Strike       float64    `json:"strike"`
	Expiration   string     `json:"expiration"`
	Volume       float64    `json:"volume"`
	OpenInterest float64    `json:"openInterest"`
	Premium      float64    `json:"premium"`
	SpotPrice    float64    `json:"spotPrice"`
	Timestamp    time.Time  `json:"timestamp"`
	Source       string     `json:"source"`
}

// IsUnusual flags records whose volume dwarfs open interest or whose
// absolute premium is large enough to matter on its own.
func (a OptionsActivity) IsUnusual() bool {
	oi := a.OpenInterest
	if oi < 1 {
		oi = 1
	}
	return a.Volume/oi >= UnusualVolumeOIRatio || a.Premium >= UnusualPremiumUSD
}
