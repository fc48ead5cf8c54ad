package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/assist-by/pinbar/internal/domain"
	"github.com/assist-by/pinbar/internal/notification"
	"github.com/assist-by/pinbar/internal/strategy"
	"github.com/assist-by/pinbar/internal/strategy/pinbar"
	"github.com/assist-by/pinbar/internal/trading"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Load(ctx context.Context, instrument string) (domain.CandleList, error) {
	args := m.Called(ctx, instrument)
	candles, _ := args.Get(0).(domain.CandleList)
	return candles, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendSignal(t trading.Trade) error {
	return m.Called(t).Error(0)
}

func (m *MockNotifier) SendSummary(r notification.SummaryReport) error {
	return m.Called(r).Error(0)
}

func (m *MockNotifier) SendError(err error) error {
	return m.Called(err).Error(0)
}

func (m *MockNotifier) SendInfo(msg string) error {
	return m.Called(msg).Error(0)
}

var watchStart = time.Date(2024, 3, 4, 11, 30, 0, 0, time.UTC)

func watchBar(i int, o, h, l, c float64) domain.Candle {
	return domain.Candle{Time: watchStart.Add(time.Duration(i) * 5 * time.Minute), Open: o, High: h, Low: l, Close: c}
}

// 음봉 → 핀바 → 형성 중인 봉
func pinSeries() domain.CandleList {
	return domain.CandleList{
		watchBar(0, 105, 106, 99, 100),
		watchBar(1, 100, 103, 90, 102.5),
		watchBar(2, 102.5, 104, 101, 103),
	}
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Factor: 2}
}

func newWatchDetector(t *testing.T) strategy.Strategy {
	t.Helper()
	cfg := strategy.DefaultConfig()
	cfg.UseTimeFilter = false
	cfg.UseTrendFilter = false
	d, err := pinbar.NewDetector(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return d
}

func TestCollector_EmitsOncePerSignal(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything, "NIFTY").Return(pinSeries(), nil)

	notifier := new(MockNotifier)
	notifier.On("SendSignal", mock.MatchedBy(func(tr trading.Trade) bool {
		return tr.Instrument == "NIFTY" && tr.EntryPrice == 102.5 && tr.StopPrice == 85
	})).Return(nil).Once()

	c, err := NewCollector(src, newWatchDetector(t), notifier, []string{"NIFTY"},
		WithRetryConfig(fastRetry()), WithCollectorLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	trades, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, watchStart.Add(5*time.Minute), trades[0].EntryTime)

	// 같은 데이터로 다시 실행해도 중복 알림 없음
	trades, err = c.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trades)

	notifier.AssertExpectations(t)
	src.AssertNumberOfCalls(t, "Load", 2)
}

func TestCollector_RetriesTransientErrors(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything, "NIFTY").Return(nil, errors.New("연결 끊김")).Twice()
	src.On("Load", mock.Anything, "NIFTY").Return(pinSeries(), nil).Once()

	notifier := new(MockNotifier)
	notifier.On("SendSignal", mock.Anything).Return(nil).Once()

	c, err := NewCollector(src, newWatchDetector(t), notifier, []string{"NIFTY"}, WithRetryConfig(fastRetry()))
	require.NoError(t, err)

	trades, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	src.AssertNumberOfCalls(t, "Load", 3)
	notifier.AssertNotCalled(t, "SendError", mock.Anything)
}

func TestCollector_NotifiesAfterFinalFailure(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything, "NIFTY").Return(nil, errors.New("서버 오류"))
	src.On("Load", mock.Anything, "BANKNIFTY").Return(pinSeries(), nil)

	notifier := new(MockNotifier)
	notifier.On("SendError", mock.Anything).Return(nil).Once()
	notifier.On("SendSignal", mock.Anything).Return(nil).Once()

	c, err := NewCollector(src, newWatchDetector(t), notifier, []string{"NIFTY", "BANKNIFTY"}, WithRetryConfig(fastRetry()))
	require.NoError(t, err)

	trades, err := c.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NIFTY")

	// 실패한 종목과 무관하게 다른 종목은 처리
	require.Len(t, trades, 1)
	assert.Equal(t, "BANKNIFTY", trades[0].Instrument)

	src.AssertNumberOfCalls(t, "Load", 4) // NIFTY 3회 + BANKNIFTY 1회
	notifier.AssertExpectations(t)
}

func TestCollector_NonRetryableError(t *testing.T) {
	src := new(MockSource)
	src.On("Load", mock.Anything, "NIFTY").Return(nil, ErrUnknownInstrument).Once()

	notifier := new(MockNotifier)

	c, err := NewCollector(src, newWatchDetector(t), notifier, []string{"NIFTY"}, WithRetryConfig(fastRetry()))
	require.NoError(t, err)

	_, err = c.Collect(context.Background())
	require.ErrorIs(t, err, ErrUnknownInstrument)

	src.AssertNumberOfCalls(t, "Load", 1)
	notifier.AssertNotCalled(t, "SendError", mock.Anything)
}

func TestCollector_CancelledContext(t *testing.T) {
	src := new(MockSource)
	c, err := NewCollector(src, newWatchDetector(t), nil, []string{"NIFTY"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = c.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	src.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "일반 오류", err: errors.New("timeout"), want: true},
		{name: "컨텍스트 취소", err: context.Canceled, want: false},
		{name: "잘못된 입력", err: &domain.CandleError{Index: 1, Err: domain.ErrInvalidInput}, want: false},
		{name: "알 수 없는 종목", err: ErrUnknownInstrument, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestNewCollector_Validation(t *testing.T) {
	_, err := NewCollector(nil, newWatchDetector(t), nil, []string{"NIFTY"})
	assert.Error(t, err)

	_, err = NewCollector(new(MockSource), newWatchDetector(t), nil, nil)
	assert.Error(t, err)
}
