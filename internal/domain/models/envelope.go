package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnvelopeType tags frames on the realtime channel.
type EnvelopeType string

const (
	EnvMarketData EnvelopeType = "market_data"
	EnvTrade      EnvelopeType = "trade"
	EnvPosition   EnvelopeType = "position"
	EnvAlert      EnvelopeType = "alert"
	EnvRegime     EnvelopeType = "regime"
	EnvPing       EnvelopeType = "ping"
	EnvPong       EnvelopeType = "pong"
)

// Envelope is the wire frame for the realtime channel. Data holds the
// payload for the tagged type; ping/pong carry none.
type Envelope struct {
	Type      EnvelopeType    `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// MarketDataPayload carries a tick on EnvMarketData frames.
type MarketDataPayload struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// AlertPayload carries a flow signal on EnvAlert frames.
type AlertPayload struct {
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Rationale  string    `json:"rationale"`
}

// RegimePayload carries a market regime label on EnvRegime frames.
type RegimePayload struct {
	Symbol string `json:"symbol"`
	State  string `json:"state"`
}

var knownEnvelopeTypes = map[EnvelopeType]struct{}{
	EnvMarketData: {},
	EnvTrade:      {},
	EnvPosition:   {},
	EnvAlert:      {},
	EnvRegime:     {},
	EnvPing:       {},
	EnvPong:       {},
}

// DecodeEnvelope parses a realtime frame and rejects unrecognized tags so
// untyped payloads never pass through.
func DecodeEnvelope(b []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if _, ok := knownEnvelopeTypes[env.Type]; !ok {
		return nil, fmt.Errorf("unknown envelope type %q", env.Type)
	}
	return &env, nil
}

// NewEnvelope marshals payload into a typed frame stamped now.
func NewEnvelope(t EnvelopeType, payload interface{}, now time.Time) (*Envelope, error) {
	env := &Envelope{Type: t, Timestamp: now.UnixMilli()}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode envelope payload: %w", err)
		}
		env.Data = b
	}
	return env, nil
}
