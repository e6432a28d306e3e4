package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"EdgeDesk/internal/domain/models"
	xlogger "EdgeDesk/pkg/logger"

	"github.com/gorilla/websocket"
)

type nopMetrics struct{}

func (nopMetrics) RecordScanCycle(string)        {}
func (nopMetrics) RecordSignal(string)           {}
func (nopMetrics) RecordTradeOpened()            {}
func (nopMetrics) RecordTradeClosed(bool)        {}
func (nopMetrics) RecordRateLimited(string)      {}
func (nopMetrics) RecordStreamEvent(string)      {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// fakeConn feeds scripted frames to the read loop and then fails with
// closeErr.
type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	closeErr error
	closed   bool
	written  [][]byte
}

func (f *fakeConn) ReadMessage() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || len(f.frames) == 0 {
		return nil, f.closeErr
	}
	b := f.frames[0]
	f.frames = f.frames[1:]
	return b, nil
}

func (f *fakeConn) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("write on closed conn")
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
	dials int
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.conns) == 0 {
		return nil, d.err
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func noSleep(ctx context.Context, d time.Duration) bool { return ctx.Err() == nil }

func envFrame(t *testing.T, typ models.EnvelopeType) []byte {
	t.Helper()
	b, err := json.Marshal(models.Envelope{Type: typ, Timestamp: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestRunExhaustsReconnectAttempts(t *testing.T) {
	d := &fakeDialer{err: errors.New("refused")}
	c := New("wss://x", testLogger(t), nopMetrics{},
		WithDialer(d),
		WithMaxAttempts(5),
		WithSleep(noSleep),
	)

	err := c.Run(context.Background())
	if !errors.Is(err, models.ErrConnectionExhausted) {
		t.Fatalf("want ErrConnectionExhausted, got %v", err)
	}
	if c.State() != StateFailed {
		t.Fatalf("want terminal failed state, got %v", c.State())
	}
	if d.dials != 5 {
		t.Fatalf("want 5 dial attempts, got %d", d.dials)
	}
}

func TestRunAbnormalClosureCountsAgainstAttempts(t *testing.T) {
	abnormal := &websocket.CloseError{Code: websocket.CloseAbnormalClosure}
	d := &fakeDialer{err: errors.New("refused")}
	for i := 0; i < 5; i++ {
		d.conns = append(d.conns, &fakeConn{closeErr: abnormal})
	}

	c := New("wss://x", testLogger(t), nopMetrics{},
		WithDialer(d),
		WithMaxAttempts(5),
		WithSleep(noSleep),
	)

	err := c.Run(context.Background())
	if !errors.Is(err, models.ErrConnectionExhausted) {
		t.Fatalf("want ErrConnectionExhausted, got %v", err)
	}
	if d.dials != 5 {
		t.Fatalf("want 5 dials, got %d", d.dials)
	}
}

func TestRunCleanCloseIsTerminal(t *testing.T) {
	clean := &websocket.CloseError{Code: websocket.CloseNormalClosure}
	d := &fakeDialer{conns: []*fakeConn{{closeErr: clean}}, err: errors.New("no more conns")}

	c := New("wss://x", testLogger(t), nopMetrics{},
		WithDialer(d),
		WithSleep(noSleep),
	)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("clean close should return nil, got %v", err)
	}
	if d.dials != 1 {
		t.Fatalf("clean close must not reconnect, dials=%d", d.dials)
	}
	if c.State() != StateDisconnected {
		t.Fatalf("want disconnected, got %v", c.State())
	}
}

func TestRunPongResetsAttemptCounter(t *testing.T) {
	abnormal := &websocket.CloseError{Code: websocket.CloseAbnormalClosure}
	clean := &websocket.CloseError{Code: websocket.CloseNormalClosure}
	d := &fakeDialer{
		conns: []*fakeConn{
			{closeErr: abnormal},
			{closeErr: abnormal},
			{frames: [][]byte{envFrame(t, models.EnvPong)}, closeErr: clean},
		},
		err: errors.New("no more conns"),
	}

	c := New("wss://x", testLogger(t), nopMetrics{},
		WithDialer(d),
		WithMaxAttempts(3),
		WithSleep(noSleep),
	)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	c.mu.Lock()
	attempt := c.attempt
	c.mu.Unlock()
	if attempt != 0 {
		t.Fatalf("pong should reset attempts, got %d", attempt)
	}
}

func TestRunDeliversEnvelopesAndDropsMalformed(t *testing.T) {
	clean := &websocket.CloseError{Code: websocket.CloseNormalClosure}
	md := envFrame(t, models.EnvMarketData)
	d := &fakeDialer{
		conns: []*fakeConn{{
			frames:   [][]byte{[]byte("{not json"), []byte(`{"type":"mystery"}`), md},
			closeErr: clean,
		}},
	}

	c := New("wss://x", testLogger(t), nopMetrics{},
		WithDialer(d),
		WithSleep(noSleep),
	)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	select {
	case env := <-c.Messages():
		if env.Type != models.EnvMarketData {
			t.Fatalf("want market_data, got %s", env.Type)
		}
	default:
		t.Fatalf("expected one delivered envelope")
	}
	select {
	case env := <-c.Messages():
		t.Fatalf("malformed frames must not be delivered, got %v", env)
	default:
	}
}

func TestSendWhileDisconnectedIsNoop(t *testing.T) {
	c := New("wss://x", testLogger(t), nopMetrics{}, WithSleep(noSleep))
	// Must not panic or block.
	c.Send(&models.Envelope{Type: models.EnvPing, Timestamp: 1})
	if c.IsConnected() {
		t.Fatalf("client should not report connected")
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: want %v, got %v", tc.attempt, tc.want, got)
		}
	}
}
