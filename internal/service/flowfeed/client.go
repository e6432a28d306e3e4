package flowfeed

import (
	"context"
	"fmt"
	"time"

	"EdgeDesk/internal/domain/models"
	xhttp "EdgeDesk/pkg/http"
)

// Client polls an options-activity feed over HTTP. Implements
// repository.FlowSource.
type Client struct {
	url  string
	http *xhttp.Client
}

// New creates a flow feed client for url.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type feedRecord struct {
	Symbol       string  `json:"symbol"`
	OptionType   string  `json:"optionType"`
	Strike       float64 `json:"strike"`
	Expiration   string  `json:"expiration"`
	Volume       float64 `json:"volume"`
	OpenInterest float64 `json:"openInterest"`
	Premium      float64 `json:"premium"`
	SpotPrice    float64 `json:"spotPrice"`
	Timestamp    int64   `json:"timestamp"` // unix ms
	Source       string  `json:"source"`
}

// Fetch returns the feed's current batch of options-activity records.
// Records with no symbol or an unrecognized option type are skipped rather
// than failing the batch.
func (c *Client) Fetch(ctx context.Context) ([]models.OptionsActivity, error) {
	var raw []feedRecord
	if err := c.http.GetJSON(ctx, c.url, nil, &raw); err != nil {
		return nil, fmt.Errorf("flow feed fetch: %w", err)
	}

	out := make([]models.OptionsActivity, 0, len(raw))
	for _, r := range raw {
		if r.Symbol == "" {
			continue
		}
		ot := models.OptionType(r.OptionType)
		if ot != models.OptionCall && ot != models.OptionPut {
			continue
		}
		out = append(out, models.OptionsActivity{
			Symbol:       r.Symbol,
			OptionType:   ot,
			Strike:       r.Strike,
			Expiration:   r.Expiration,
			Volume:       r.Volume,
			OpenInterest: r.OpenInterest,
			Premium:      r.Premium,
			SpotPrice:    r.SpotPrice,
			Timestamp:    time.UnixMilli(r.Timestamp),
			Source:       r.Source,
		})
	}
	return out, nil
}
