package discord

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/assist-by/pinbar/internal/backtest"
	"github.com/assist-by/pinbar/internal/notification"
	"github.com/assist-by/pinbar/internal/trading"
)

var _ notification.Notifier = (*Client)(nil)

// 수신한 웹훅 메시지를 경로별로 기록하는 테스트 서버
type recorder struct {
	mu       sync.Mutex
	messages map[string][]WebhookMessage
	status   int
}

func newRecorder(t *testing.T) (*recorder, *httptest.Server) {
	t.Helper()
	rec := &recorder{messages: make(map[string][]WebhookMessage), status: http.StatusNoContent}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var msg WebhookMessage
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		rec.mu.Lock()
		rec.messages[r.URL.Path] = append(rec.messages[r.URL.Path], msg)
		status := rec.status
		rec.mu.Unlock()

		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func (r *recorder) get(path string) []WebhookMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[path]
}

func testTrade(t *testing.T) trading.Trade {
	t.Helper()
	tr, err := trading.NewTrade("NIFTY", time.Date(2024, 3, 4, 11, 35, 0, 0, time.UTC), 100, 95, 3)
	require.NoError(t, err)
	return tr
}

func TestClient_SendSignal(t *testing.T) {
	rec, srv := newRecorder(t)
	c := NewClient(srv.URL+"/signal", srv.URL+"/info", WithLogger(zaptest.NewLogger(t)))

	require.NoError(t, c.SendSignal(testTrade(t)))

	msgs := rec.get("/signal")
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Embeds, 1)

	embed := msgs[0].Embeds[0]
	assert.Contains(t, embed.Title, "NIFTY")
	assert.Contains(t, embed.Description, "115.00")
	assert.Equal(t, notification.ColorSuccess, embed.Color)
	assert.Len(t, embed.Fields, 3)
	assert.Equal(t, "2024-03-04T11:35:00Z", embed.Timestamp)
}

func TestClient_SendSummary(t *testing.T) {
	rec, srv := newRecorder(t)
	c := NewClient("", srv.URL+"/info")

	report := notification.SummaryReport{
		Instrument: "NIFTY",
		Summary:    backtest.Summary{TotalTrades: 3, Wins: 3, WinRate: 100, GrossPnL: 1125, ProfitFactor: math.Inf(1)},
		Net:        &backtest.NetReport{TotalCharges: 480, NetPnL: 645, ChargeShare: 42.7},
	}
	require.NoError(t, c.SendSummary(report))

	msgs := rec.get("/info")
	require.Len(t, msgs, 1)
	embed := msgs[0].Embeds[0]
	assert.Contains(t, embed.Description, "∞")
	assert.Equal(t, notification.ColorSuccess, embed.Color)
	assert.Len(t, embed.Fields, 3)
}

func TestClient_ErrorFallsBackToInfo(t *testing.T) {
	rec, srv := newRecorder(t)
	c := NewClient("", srv.URL+"/info")

	require.NoError(t, c.SendError(errors.New("데이터 로드 실패")))
	require.NoError(t, c.SendInfo("감시 시작"))

	msgs := rec.get("/info")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Embeds[0].Description, "데이터 로드 실패")
	assert.Equal(t, "감시 시작", msgs[1].Embeds[0].Description)

	c = NewClient("", srv.URL+"/info", WithErrorWebhook(srv.URL+"/error"))
	require.NoError(t, c.SendError(errors.New("x")))
	assert.Len(t, rec.get("/error"), 1)
}

func TestClient_EmptyWebhookIsNoop(t *testing.T) {
	c := NewClient("", "")
	assert.NoError(t, c.SendSignal(testTrade(t)))
	assert.NoError(t, c.SendInfo("무시"))
}

func TestClient_BadStatus(t *testing.T) {
	rec, srv := newRecorder(t)
	rec.status = http.StatusTooManyRequests

	c := NewClient(srv.URL+"/signal", "", WithTimeout(time.Second))
	err := c.SendSignal(testTrade(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestEmbed_Truncate(t *testing.T) {
	long := strings.Repeat("가", maxFieldValueLen+10)
	e := NewEmbed().AddField("이름", long, false)
	assert.Equal(t, maxFieldValueLen, len([]rune(e.Fields[0].Value)))

	for i := 0; i < maxFields+5; i++ {
		e.AddField("f", "v", true)
	}
	assert.Len(t, e.Fields, maxFields)
}
