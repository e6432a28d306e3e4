package flowfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"EdgeDesk/internal/domain/models"
)

func TestFetchParsesBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"symbol":"NVDA","optionType":"CALL","strike":900,"volume":5000,"openInterest":800,"premium":650000,"timestamp":1748779200000,"source":"test"},
			{"symbol":"","optionType":"CALL","premium":100000},
			{"symbol":"TSLA","optionType":"STRADDLE","premium":100000},
			{"symbol":"TSLA","optionType":"PUT","volume":100,"openInterest":50,"premium":220000,"timestamp":1748779200000}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	got, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 usable records, got %d", len(got))
	}
	if got[0].Symbol != "NVDA" || got[0].OptionType != models.OptionCall {
		t.Fatalf("first record: %+v", got[0])
	}
	if !got[0].Timestamp.Equal(time.UnixMilli(1748779200000)) {
		t.Fatalf("timestamp: %v", got[0].Timestamp)
	}
	if got[1].Symbol != "TSLA" || got[1].OptionType != models.OptionPut {
		t.Fatalf("second record: %+v", got[1])
	}
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatalf("bad upstream status should fail the fetch")
	}
}
